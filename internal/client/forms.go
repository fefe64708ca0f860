package client

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Forms binds the upload and search handlers to a View. Overlapping
// searches are sequenced: every submission cancels the one before it and
// only the latest submission may touch the view.
type Forms struct {
	client *Client
	view   View
	logger *zap.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewForms returns handlers that render into view.
func NewForms(c *Client, view View) *Forms {
	return &Forms{
		client: c,
		view:   view,
		logger: c.logger,
	}
}

// SubmitUpload uploads f. The reply is logged by the client; failures are
// shown on the view and returned.
func (f *Forms) SubmitUpload(ctx context.Context, file *File) (json.RawMessage, error) {
	res, err := f.client.Upload(ctx, file)
	if err != nil {
		f.UploadFailed(err)
		return nil, err
	}
	return res, nil
}

// UploadFailed reports an upload that failed before it could be submitted,
// such as a selected file that could not be read.
func (f *Forms) UploadFailed(err error) {
	f.logger.Warn("upload failed", zap.Error(err))
	f.view.ShowError(err)
}

// SubmitSearch runs query and renders the results. If another search is
// submitted before this one resolves, this one returns ErrStaleResponse and
// leaves the view alone.
func (f *Forms) SubmitSearch(ctx context.Context, query string) error {
	f.mu.Lock()
	f.seq++
	n := f.seq
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()
	defer cancel()

	results, err := f.client.Search(ctx, query)

	f.mu.Lock()
	defer f.mu.Unlock()
	if n != f.seq {
		f.logger.Debug("discarding stale search",
			zap.Uint64("seq", n),
			zap.Uint64("latest", f.seq),
			zap.Bool("failed", err != nil))
		return ErrStaleResponse
	}
	f.cancel = nil

	if err != nil {
		f.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		f.view.ShowError(err)
		return err
	}
	f.view.ShowResults(results)
	return nil
}

// Latest returns the sequence number of the most recent search submission.
func (f *Forms) Latest() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}
