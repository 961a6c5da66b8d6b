package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/part"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a part manifest and the chunk headers of its columns",
		RunE:  runInspect,
	}
	cmd.Flags().String("dir", ".", "Root directory of the local store")
	cmd.Flags().String("part", "", "Part name")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	name, _ := cmd.Flags().GetString("part")
	ctx := cmd.Context()

	store, err := openStore(cmd, dir)
	if err != nil {
		return err
	}
	r, err := part.Open(ctx, store, name, part.WithTypeOptions(typeOptions(cmd)...))
	if err != nil {
		return err
	}
	m := r.Manifest()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "part %s: %d rows, codec %s, compression %s, granule %d, dictionary %d, rotate %t\n",
		name, m.Rows, r.Codec().Name(), m.Compression, m.GranuleRows, m.MaxDictionarySize, m.RotateDictionaryOnOverflow)

	for _, c := range m.Columns {
		fmt.Fprintf(out, "\ncolumn %s %s: %d rows in %d granules\n", c.Name, c.Type, c.Rows, c.Granules)
		for _, s := range c.Streams {
			fmt.Fprintf(out, "  stream %-20s raw %10d stored %10d blocks %4d crc32c %08x\n",
				s.Path, s.RawSize, s.StoredSize, s.Blocks, s.Checksum)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  chunk\twidth\tglobal\tadditional\tupdate\trows\tkeys\tdictionary")
		_, err := r.ReadColumn(ctx, c.Name, 0, func(info lowcard.ChunkInfo) {
			h := info.Header
			fmt.Fprintf(tw, "  %d\t%s\t%t\t%t\t%t\t%d\t%d\t%d\n", info.Sequence, h.Width,
				h.NeedGlobalDictionary, h.HasAdditionalKeys, h.NeedUpdateDictionary,
				info.Rows, info.AdditionalKeys, info.DictionarySize)
		})
		if flushErr := tw.Flush(); err == nil {
			err = flushErr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
