// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads SPL XML documents from DailyMed into a save
// directory. The presence of <setid>.xml in the save directory is the only
// record that a document has been downloaded.
package acquire

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/dailymed/internal/httputil"
	"github.com/pdiddy/dailymed/pkg/types"
)

// DefaultTimeout bounds each document request.
const DefaultTimeout = 10 * time.Second

// setidPlaceholder is replaced with the record identifier in
// DownloadConfig.DocumentURL.
const setidPlaceholder = "{setid}"

// xmlPrefix is the leading byte sequence a document must carry to be saved.
// It keeps HTML error pages served with a 200 status out of the save
// directory.
var xmlPrefix = []byte("<?xml")

var errUnsafeID = errors.New("setid is not a plain file name")

// Downloader fetches SPL documents and writes them into cfg.SaveDir.
type Downloader struct {
	client   *httputil.Client
	cfg      types.DownloadConfig
	logger   *slog.Logger
	progress ProgressFunc
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// WithProgress sets the factory used to report batch progress.
func WithProgress(f ProgressFunc) Option {
	return func(d *Downloader) { d.progress = f }
}

// NewDownloader creates the save directory if needed and returns a
// Downloader whose document requests are bounded by cfg.Timeout (10s when
// unset). client is shared with the caller; its retry policy applies to
// every document request.
func NewDownloader(client *httputil.Client, cfg types.DownloadConfig, opts ...Option) (*Downloader, error) {
	if cfg.SaveDir == "" {
		return nil, fmt.Errorf("save directory is not set")
	}
	if cfg.DocumentURL == "" {
		cfg.DocumentURL = types.DefaultDocumentURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory %s: %w", cfg.SaveDir, err)
	}

	d := &Downloader{
		client: client.WithTimeout(cfg.Timeout),
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DocumentURL returns the download URL for rec.
func (d *Downloader) DocumentURL(rec types.Record) string {
	return strings.ReplaceAll(d.cfg.DocumentURL, setidPlaceholder, url.QueryEscape(rec.ID))
}

// Path returns the file that holds rec's document. It fails when the
// identifier would escape the save directory.
func (d *Downloader) Path(rec types.Record) (string, error) {
	id := rec.ID
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%q: %w", id, errUnsafeID)
	}
	return filepath.Join(d.cfg.SaveDir, rec.FileName()), nil
}

// DownloadXML fetches rec's document and writes it verbatim to
// <save_dir>/<setid>.xml. It reports true only when the response is 200
// and the body starts with "<?xml". Every other outcome is logged and
// reported as false; nothing is written in that case.
func (d *Downloader) DownloadXML(ctx context.Context, rec types.Record) bool {
	path, err := d.Path(rec)
	if err != nil {
		d.logger.Error("invalid record", "setid", rec.ID, "error", err)
		return false
	}

	docURL := d.DocumentURL(rec)
	d.logger.Debug("downloading", "setid", rec.ID, "url", docURL)

	resp, err := d.client.Get(ctx, docURL, d.cfg.UserAgent)
	if err != nil {
		d.logger.Error("download failed", "setid", rec.ID, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("download failed", "setid", rec.ID, "status", resp.StatusCode, "url", docURL)
		return false
	}

	body := bufio.NewReader(resp.Body)
	head, err := body.Peek(len(xmlPrefix))
	if !bytes.HasPrefix(head, xmlPrefix) {
		if err != nil && !errors.Is(err, io.EOF) {
			d.logger.Error("download failed", "setid", rec.ID, "error", err)
		} else {
			d.logger.Warn("response is not XML", "setid", rec.ID, "url", docURL)
		}
		return false
	}

	n, err := writeFile(path, body)
	if err != nil {
		d.logger.Error("saving document failed", "setid", rec.ID, "path", path, "error", err)
		return false
	}
	d.logger.Debug("saved", "setid", rec.ID, "path", path, "size", humanize.Bytes(uint64(n)))
	return true
}

// writeFile copies r to destPath through a temporary file in the same
// directory, so an interrupted write never leaves a file at destPath.
func writeFile(destPath string, r io.Reader) (int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
