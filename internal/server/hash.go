// hash.go - spools an upload to a temp file while computing its SHA-256.
//
// Extraction needs random access (zip central directory) and the object
// store wants a known size, so the multipart stream is copied to disk once.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// spooledFile is an upload copied to local disk.
type spooledFile struct {
	f         *os.File
	size      int64
	sha256Hex string
}

// spool copies r to a temp file, hashing it on the way.
func spool(r io.Reader) (*spooledFile, error) {
	tmp, err := os.CreateTemp("", "booksearch-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("copy upload to temp: %w", err)
	}

	return &spooledFile{
		f:         tmp,
		size:      n,
		sha256Hex: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Reader returns a fresh reader over the whole file.
func (s *spooledFile) Reader() *io.SectionReader {
	return io.NewSectionReader(s.f, 0, s.size)
}

// Close closes and removes the temp file.
func (s *spooledFile) Close() error {
	name := s.f.Name()
	err := s.f.Close()
	_ = os.Remove(name)
	return err
}
