package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/edvin/credgate/internal/model"
)

// S3Archiver batches audit records and uploads them to an S3 bucket as
// newline-delimited JSON objects. Retention storage for compliance review;
// the Postgres table stays the operator-facing query surface.
type S3Archiver struct {
	client    *s3.Client
	bucket    string
	logger    zerolog.Logger
	flushSize int

	mu    sync.Mutex
	batch []*model.AuditRecord

	// upload ships one drained batch; swappable in tests.
	upload func([]*model.AuditRecord)

	full chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// S3ArchiverConfig configures an S3Archiver.
type S3ArchiverConfig struct {
	Bucket    string
	Endpoint  string // optional custom endpoint (e.g. a local RGW)
	AccessKey string
	SecretKey string

	// FlushInterval bounds batch latency; FlushSize bounds batch size,
	// triggering an immediate flush once the pending batch reaches it.
	// Zero values get defaults of 1m and 500.
	FlushInterval time.Duration
	FlushSize     int
}

// NewS3Archiver creates the archiver and starts its flush loop.
func NewS3Archiver(cfg S3ArchiverConfig, logger zerolog.Logger) *S3Archiver {
	opts := s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Minute
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = 500
	}

	a := &S3Archiver{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		logger:    logger.With().Str("component", "audit-archiver").Logger(),
		flushSize: cfg.FlushSize,
		full:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	a.upload = a.uploadS3
	a.wg.Add(1)
	go a.loop(cfg.FlushInterval)
	return a
}

// Archive adds a record to the pending batch and wakes the flush loop
// when the batch reaches the flush size.
func (a *S3Archiver) Archive(rec *model.AuditRecord) {
	a.mu.Lock()
	a.batch = append(a.batch, rec)
	full := len(a.batch) >= a.flushSize
	a.mu.Unlock()

	if full {
		select {
		case a.full <- struct{}{}:
		default:
		}
	}
}

// Close flushes the pending batch and stops the archiver.
func (a *S3Archiver) Close() {
	close(a.done)
	a.wg.Wait()
	a.flush()
}

func (a *S3Archiver) loop(interval time.Duration) {
	defer a.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			a.flush()
		case <-a.full:
			a.flush()
		}
	}
}

func (a *S3Archiver) flush() {
	a.mu.Lock()
	batch := a.batch
	a.batch = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	a.upload(batch)
}

func (a *S3Archiver) uploadS3(batch []*model.AuditRecord) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range batch {
		if err := enc.Encode(rec); err != nil {
			a.logger.Error().Err(err).Msg("failed to encode audit record for archive")
		}
	}

	key := fmt.Sprintf("audit/%s/%d.ndjson", time.Now().UTC().Format("2006/01/02"), time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		a.logger.Error().Err(err).Int("records", len(batch)).Msg("failed to upload audit archive batch")
		return
	}
	a.logger.Debug().Int("records", len(batch)).Str("key", key).Msg("uploaded audit archive batch")
}
