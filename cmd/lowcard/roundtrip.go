package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/blobstore"
	"github.com/hupe1980/lowcard/compress"
	"github.com/hupe1980/lowcard/part"
	"github.com/hupe1980/lowcard/testutil"
	"github.com/hupe1980/lowcard/types"
)

type roundtripConfig struct {
	rows        int
	distinct    int
	capacity    uint64
	granule     int
	budget      int
	rotate      bool
	nullable    bool
	compression string
	dir         string
	cache       int64
	seed        int64
}

func newRoundtripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Generate a string column, store it as a part and read it back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := roundtripFlags(cmd)
			if err != nil {
				return err
			}
			return runRoundtrip(cmd, cfg)
		},
	}
	f := cmd.Flags()
	f.Int("rows", 100_000, "Number of rows")
	f.Int("distinct", 1000, "Number of distinct values")
	f.Uint64("capacity", part.DefaultMaxDictionarySize, "Global dictionary capacity (0 disables it)")
	f.Int("granule", part.DefaultGranuleRows, "Rows per encoded chunk")
	f.Int("budget", 0, "Rows per decode call (0 decodes at once)")
	f.Bool("rotate", false, "Rotate a full dictionary instead of writing overflow keys per chunk")
	f.Bool("nullable", false, "Use Nullable(String) keys with 5% NULLs")
	f.String("compression", "lz4", "Block compression: none, lz4 or zstd")
	f.String("dir", "", "Store the part in this directory (default: in memory)")
	f.Int64("cache", 0, "Read through a block cache of this many bytes")
	f.Int64("seed", 1, "Data generator seed")
	return cmd
}

func roundtripFlags(cmd *cobra.Command) (roundtripConfig, error) {
	f := cmd.Flags()
	var cfg roundtripConfig
	cfg.rows, _ = f.GetInt("rows")
	cfg.distinct, _ = f.GetInt("distinct")
	cfg.capacity, _ = f.GetUint64("capacity")
	cfg.granule, _ = f.GetInt("granule")
	cfg.budget, _ = f.GetInt("budget")
	cfg.rotate, _ = f.GetBool("rotate")
	cfg.nullable, _ = f.GetBool("nullable")
	cfg.compression, _ = f.GetString("compression")
	cfg.dir, _ = f.GetString("dir")
	cfg.cache, _ = f.GetInt64("cache")
	cfg.seed, _ = f.GetInt64("seed")

	if cfg.rows < 0 || cfg.distinct <= 0 || cfg.granule <= 0 || cfg.budget < 0 {
		return cfg, fmt.Errorf("invalid flags: rows=%d distinct=%d granule=%d budget=%d", cfg.rows, cfg.distinct, cfg.granule, cfg.budget)
	}
	return cfg, nil
}

func runRoundtrip(cmd *cobra.Command, cfg roundtripConfig) error {
	method, err := compress.ParseMethod(cfg.compression)
	if err != nil {
		return err
	}

	store, err := openStore(cmd, cfg.dir)
	if err != nil {
		return err
	}
	var cached *blobstore.CachingStore
	if cfg.cache > 0 {
		cached = blobstore.NewCachingStore(store, cfg.cache, 0)
		store = cached
	}

	keyType := "String"
	if cfg.nullable {
		keyType = "Nullable(String)"
	}
	metrics := &lowcard.BasicMetricsCollector{}
	opts := append(typeOptions(cmd), lowcard.WithMetricsCollector(metrics))
	typ, err := lowcard.NewType(types.MustParse(keyType), opts...)
	if err != nil {
		return err
	}

	rng := testutil.NewRNG(cfg.seed)
	values := rng.SkewedStrings(cfg.rows, cfg.distinct)
	if cfg.nullable {
		values = rng.WithNulls(values, 0.05)
	}
	data := testutil.StringColumn(values, cfg.nullable)

	ctx := cmd.Context()
	name := fmt.Sprintf("roundtrip-%d", time.Now().UnixNano())

	start := time.Now()
	m, err := part.Write(ctx, store, name, []part.Column{{Name: "value", Type: typ, Data: data}},
		part.WithGranuleRows(cfg.granule),
		part.WithMaxDictionarySize(cfg.capacity),
		part.WithRotateDictionary(cfg.rotate),
		part.WithCompression(method),
	)
	if err != nil {
		return err
	}
	written := time.Since(start)

	r, err := part.Open(ctx, store, name, part.WithTypeOptions(opts...))
	if err != nil {
		return err
	}
	start = time.Now()
	got, err := r.ReadColumn(ctx, "value", cfg.budget, nil)
	if err != nil {
		return err
	}
	read := time.Since(start)

	if !reflect.DeepEqual(data.Values(), got.Values()) {
		return fmt.Errorf("round trip of %s returned different values", name)
	}

	stats := metrics.GetStats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "part %s: %d rows, %d distinct, type %s\n", name, cfg.rows, data.Dictionary().Len(), typ.Name())
	for _, s := range m.Columns[0].Streams {
		fmt.Fprintf(out, "  %-12s raw %10d stored %10d\n", s.Path, s.RawSize, s.StoredSize)
	}
	fmt.Fprintf(out, "  chunks %d, additional keys %d, dictionary flushes %d\n",
		stats.EncodedChunks, stats.AdditionalKeys, stats.DictionaryFlushes)
	if cached != nil {
		hits, misses := cached.Stats()
		fmt.Fprintf(out, "  block cache hits %d, misses %d\n", hits, misses)
	}
	fmt.Fprintf(out, "  write %s, read %s: ok\n", written.Round(time.Microsecond), read.Round(time.Microsecond))
	return nil
}
