// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"os"

	"github.com/pdiddy/dailymed/pkg/types"
)

// Progress receives one Add(1) per processed record.
type Progress interface {
	Add(num int) error
	Finish() error
}

// ProgressFunc creates a Progress for a batch of total records. label names
// the batch (the drug name when batching by name).
type ProgressFunc func(total int, label string) Progress

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of records processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(o BatchResult) {
	r.Downloaded += o.Downloaded
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// Batch downloads records in order, one request at a time. When limit is
// positive only the first limit records are considered. A record whose
// file already exists is skipped without a request or delay; every
// attempted download is followed by the configured delay whatever its
// outcome. Cancelling ctx stops the batch before the next record.
func (d *Downloader) Batch(ctx context.Context, records []types.Record, limit int) BatchResult {
	return d.batch(ctx, "", records, limit)
}

func (d *Downloader) batch(ctx context.Context, label string, records []types.Record, limit int) BatchResult {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	var bar Progress
	if d.progress != nil {
		bar = d.progress(len(records), label)
	}
	advance := func() {
		if bar != nil {
			if err := bar.Add(1); err != nil {
				d.logger.Debug("progress update failed", "error", err)
			}
		}
	}

	var result BatchResult
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}

		path, err := d.Path(rec)
		if err != nil {
			d.logger.Warn("skipping record", "setid", rec.ID, "error", err)
			result.Failed++
			advance()
			continue
		}

		// Resume: an existing file means the record is done.
		if _, err := os.Stat(path); err == nil {
			d.logger.Debug("skipped", "setid", rec.ID, "reason", "already exists")
			result.Skipped++
			advance()
			continue
		}

		if d.DownloadXML(ctx, rec) {
			result.Downloaded++
			d.logger.Info("downloaded", "title", rec.Title, "setid", rec.ID)
		} else {
			result.Failed++
		}
		advance()

		if err := d.sleep(ctx, d.cfg.Delay); err != nil {
			break
		}
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			d.logger.Debug("progress finish failed", "error", err)
		}
	}
	d.logger.Info("completed downloads",
		"count", result.Downloaded, "skipped", result.Skipped, "failed", result.Failed)
	return result
}
