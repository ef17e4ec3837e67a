package pipeline

import (
	"context"

	"github.com/deeparchive/deeparchive/internal/inference"
	"github.com/deeparchive/deeparchive/internal/media"
	"github.com/deeparchive/deeparchive/internal/storage"
)

// hashWorker turns paths into jobs. A file that fails to hash is
// dropped from the pipeline entirely; it never reaches the store.
func (p *Pipeline) hashWorker(ctx context.Context, id int, in <-chan string, out chan<- Job) {
	p.logger.Debug("hasher started", "worker", id)
	defer p.logger.Debug("hasher finished", "worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-in:
			if !ok {
				return
			}
			digest, err := p.hashFile(path)
			if err != nil {
				p.logger.Error("failed to hash file", "path", path, "error", err)
				continue
			}
			select {
			case out <- Job{Path: path, Hash: digest}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// processWorker classifies and enriches jobs. Every job produces
// exactly one record; any per-job error only degrades the record's
// enrichment fields.
func (p *Pipeline) processWorker(ctx context.Context, id int, in <-chan Job, out chan<- storage.ArtifactRecord) {
	p.logger.Debug("processor started", "worker", id)
	defer p.logger.Debug("processor finished", "worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-in:
			if !ok {
				return
			}
			record := p.processJob(ctx, job)
			select {
			case out <- record:
			case <-ctx.Done():
				return
			}
		}
	}
}

// processJob builds the artifact record for one hashed file.
func (p *Pipeline) processJob(ctx context.Context, job Job) storage.ArtifactRecord {
	record := storage.ArtifactRecord{
		HashSHA256:   job.Hash,
		OriginalPath: job.Path,
		MediaType:    p.detect(job.Path),
	}

	if !media.IsVisual(record.MediaType) {
		return record
	}

	raw, err := p.extract(ctx, job.Path)
	if err != nil {
		p.logger.Error("frame extraction failed", "path", job.Path, "error", err)
		return record
	}

	frame, err := media.FrameFromRaw(raw)
	if err != nil {
		p.logger.Error("failed to reconstruct frame", "path", job.Path, "error", err)
		return record
	}

	edge := media.FrameEdge
	record.Width = &edge
	record.Height = &edge

	if p.engine == nil {
		return record
	}

	if input, err := inference.NormalizeForSafety(frame); err != nil {
		p.logger.Error("safety normalization failed", "path", job.Path, "error", err)
	} else if score, err := p.engine.ClassifySafety(input); err != nil {
		p.logger.Error("safety classification failed", "path", job.Path, "error", err)
	} else {
		record.NSFWScore = &score
	}

	if input, err := inference.NormalizeForTagger(frame); err != nil {
		p.logger.Error("tagger normalization failed", "path", job.Path, "error", err)
	} else if tags, err := p.engine.TagImage(input); err != nil {
		p.logger.Error("tagging failed", "path", job.Path, "error", err)
	} else {
		record.Tags = tags
	}

	return record
}
