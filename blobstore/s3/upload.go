package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/lowcard/internal/hash"
)

// UploadConfig configures streaming substream uploads.
type UploadConfig struct {
	// PartSize is the multipart chunk size. Default 8 MiB.
	PartSize int64
	// Concurrency is the number of parts uploaded at once. Default 5.
	Concurrency int
	// EnableChecksum asks S3 to validate each part with CRC32C.
	EnableChecksum bool
	// LeavePartsOnError keeps uploaded parts of a failed or aborted upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the settings used by NewStore.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// computeCRC32C returns the checksum in the x-amz-checksum-crc32c form:
// base64 of the big-endian bytes.
func computeCRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], hash.CRC32C(data))
	return base64.StdEncoding.EncodeToString(b[:])
}

// upload pipes writes into a background manager.Uploader run. Close and
// Abort are mutually exclusive; whichever runs first decides the outcome.
type upload struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	once sync.Once
	err  error
}

func startUpload(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *upload {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	u := &upload{pw: pw, cancel: cancel, done: make(chan error, 1)}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u
}

func (u *upload) Write(p []byte) (int, error) { return u.pw.Write(p) }

// Sync is a no-op; data is committed by Close.
func (u *upload) Sync() error { return nil }

// Close signals EOF to the uploader and waits for the upload to complete.
func (u *upload) Close() error {
	u.once.Do(func() {
		defer u.cancel()
		if u.err = u.pw.Close(); u.err != nil {
			return
		}
		if err := <-u.done; err != nil {
			u.err = fmt.Errorf("s3: upload: %w", err)
		}
	})
	return u.err
}

// Abort cancels the upload. The uploader removes uploaded parts unless
// LeavePartsOnError is set.
func (u *upload) Abort() error {
	u.once.Do(func() {
		u.cancel()
		_ = u.pw.CloseWithError(context.Canceled)
		<-u.done
		u.err = context.Canceled
	})
	return nil
}

func putWithChecksum(ctx context.Context, client Client, bucket, key string, data []byte, ifNoneMatch bool) error {
	input := &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(int64(len(data))),
		ChecksumCRC32C: aws.String(computeCRC32C(data)),
	}
	if ifNoneMatch {
		input.IfNoneMatch = aws.String("*")
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}
	return nil
}
