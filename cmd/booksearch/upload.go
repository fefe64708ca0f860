package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"book-search/internal/client"
)

// maxParallelUploads bounds how many files are in flight at once.
const maxParallelUploads = 4

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload .txt, .md, .html or .zip files for indexing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, err := opts.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out := &syncWriter{w: cmd.OutOrStdout()}
			errOut := &syncWriter{w: cmd.ErrOrStderr()}

			var (
				mu     sync.Mutex
				failed int
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxParallelUploads)

			for _, path := range args {
				g.Go(func() error {
					view := &lineView{prefix: path, out: out, errOut: errOut}
					if err := uploadOne(ctx, client.NewForms(c, view), view, path); err != nil {
						mu.Lock()
						failed++
						mu.Unlock()
					}
					// One bad file must not cancel the others.
					return nil
				})
			}
			_ = g.Wait()

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
}

// uploadOne submits the file at path. Failures are reported on view.
func uploadOne(ctx context.Context, forms *client.Forms, view *lineView, path string) error {
	f, err := os.Open(path)
	if err != nil {
		view.ShowError(err)
		return err
	}
	defer func() { _ = f.Close() }()

	res, err := forms.SubmitUpload(ctx, &client.File{Name: filepath.Base(path), Content: f})
	if err != nil {
		return err
	}
	view.printf("%s", res)
	return nil
}
