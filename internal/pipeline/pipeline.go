package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/deeparchive/deeparchive/internal/config"
	"github.com/deeparchive/deeparchive/internal/hasher"
	"github.com/deeparchive/deeparchive/internal/inference"
	"github.com/deeparchive/deeparchive/internal/media"
	"github.com/deeparchive/deeparchive/internal/storage"
)

// Job is a hashed file awaiting media processing.
type Job struct {
	Path string
	Hash string
}

// FrameExtractor samples visual content from a file as packed RGB24
// frames. media.ExtractFrames in production, a stub in tests.
type FrameExtractor func(ctx context.Context, path string) ([]byte, error)

// MIMEDetector classifies a file's content type. Never fails; unknown
// content comes back as application/octet-stream.
type MIMEDetector func(path string) string

// Options carries the optional collaborators of a pipeline. Zero fields
// select production defaults; Engine may stay nil to run without
// inference.
type Options struct {
	Engine  *inference.Engine
	Extract FrameExtractor
	Detect  MIMEDetector
	Logger  *slog.Logger
}

// Pipeline runs one ingestion pass over a directory tree.
type Pipeline struct {
	cfg    config.Pipeline
	writer *storage.BatchWriter
	engine *inference.Engine

	hashFile func(path string) (string, error)
	extract  FrameExtractor
	detect   MIMEDetector
	logger   *slog.Logger
}

// New assembles a pipeline around an open batch writer.
func New(cfg config.Pipeline, writer *storage.BatchWriter, opts Options) *Pipeline {
	cfg = cfg.WithDefaults()

	h := hasher.New()
	h.MmapThreshold = cfg.MmapThreshold

	p := &Pipeline{
		cfg:      cfg,
		writer:   writer,
		engine:   opts.Engine,
		hashFile: h.HashFile,
		extract:  opts.Extract,
		detect:   opts.Detect,
		logger:   opts.Logger,
	}
	if p.extract == nil {
		p.extract = media.ExtractFrames
	}
	if p.detect == nil {
		p.detect = media.DetectMIME
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run walks root and ingests every visible regular file. It returns
// when every stage has terminated: the scanner's traversal is done (or
// failed), both worker pools have drained their inputs, and the writer
// has flushed its tail. Per-item failures are logged, not returned;
// the error covers traversal failures and context cancellation.
func (p *Pipeline) Run(ctx context.Context, root string) error {
	paths := make(chan string, p.cfg.ChannelCapacity)
	jobs := make(chan Job, p.cfg.ChannelCapacity)
	records := make(chan storage.ArtifactRecord, p.cfg.ChannelCapacity)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(paths)
		return p.scan(gctx, root, paths)
	})

	g.Go(func() error {
		// The jobs channel closes only after every hasher exits, not
		// per-worker, so the processing pool never sees a premature
		// end of stream.
		defer close(jobs)
		return p.runPool(gctx, p.cfg.HashWorkers, func(ctx context.Context, id int) {
			p.hashWorker(ctx, id, paths, jobs)
		})
	})

	g.Go(func() error {
		defer close(records)
		return p.runPool(gctx, p.cfg.ProcessWorkers, func(ctx context.Context, id int) {
			p.processWorker(ctx, id, jobs, records)
		})
	})

	g.Go(func() error {
		return p.drain(gctx, records)
	})

	return g.Wait()
}

// runPool runs n workers and blocks until all of them return.
func (p *Pipeline) runPool(ctx context.Context, n int, worker func(ctx context.Context, id int)) error {
	pool, pctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		id := i
		pool.Go(func() error {
			worker(pctx, id)
			return nil
		})
	}
	return pool.Wait()
}

// drain feeds the batch writer from the records channel and flushes the
// tail once the stream ends. Flush failures lose that batch; they are
// logged and the drain continues, per the no-retry contract.
func (p *Pipeline) drain(ctx context.Context, records <-chan storage.ArtifactRecord) error {
	p.logger.Info("writer started")
	for record := range records {
		if err := p.writer.Add(ctx, record); err != nil {
			p.logger.Error("batch flush failed", "error", err)
		}
	}

	if err := p.writer.Flush(ctx); err != nil {
		p.logger.Error("final flush failed", "error", err)
	}
	p.logger.Info("writer finished")
	return nil
}
