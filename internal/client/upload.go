package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
)

const (
	// uploadField is the multipart field name the backend reads the file from.
	uploadField = "file"
	// unnamedFile is sent for a File without a Name, as browsers do.
	unnamedFile = "blob"
)

// File is a single selected file. An empty Name is sent as "blob".
type File struct {
	Name    string
	Content io.Reader
}

// Upload posts f to /upload as a one-part multipart body and returns the
// backend's JSON reply verbatim. A nil f still issues the POST, carrying an
// empty "file" form field, so validation is left to the backend.
func (c *Client) Upload(ctx context.Context, f *File) (json.RawMessage, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadBody(mw, f))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(UploadPath, nil), pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do("upload", req)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("upload: %w: body is not json", ErrMalformedResponse)
	}

	raw := json.RawMessage(body)
	c.logger.Info("upload response", zap.Any("response", raw))
	return raw, nil
}

func writeUploadBody(mw *multipart.Writer, f *File) error {
	if f == nil {
		if err := mw.WriteField(uploadField, ""); err != nil {
			return err
		}
		return mw.Close()
	}

	name := f.Name
	if name == "" {
		name = unnamedFile
	}
	part, err := mw.CreateFormFile(uploadField, name)
	if err != nil {
		return err
	}
	if f.Content != nil {
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("copy file content: %w", err)
		}
	}
	return mw.Close()
}
