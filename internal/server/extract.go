// extract.go - turns an uploaded file into searchable text documents.
package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/net/html"
)

const (
	// maxDocumentBytes bounds the text kept per document.
	maxDocumentBytes = 4 << 20
	// maxZipEntries bounds how many entries of one archive are indexed.
	maxZipEntries = 1000
	// maxExtractedBytes bounds the text held in memory for one upload.
	maxExtractedBytes = 256 << 20
	// extractRatio is how far an upload may expand past max_upload_bytes.
	extractRatio = 4
	// titleScanLines is how far into a plain-text file a "Title:" header is looked for.
	titleScanLines = 100
)

var (
	errUnsupportedType = errors.New("unsupported file type")
	errNoDocuments     = errors.New("no text documents found")
	errExtractLimit    = errors.New("extracted text exceeds limit")
)

// textExtensions are indexed as-is; htmlExtensions as visible text.
var (
	textExtensions = map[string]bool{".txt": true, ".text": true, ".md": true}
	htmlExtensions = map[string]bool{".html": true, ".htm": true}
)

// extractLimit is the decompressed text budget for an upload capped at
// maxUpload bytes. Zero means no upload cap.
func extractLimit(maxUpload int64) int64 {
	if maxUpload <= 0 || maxUpload > maxExtractedBytes/extractRatio {
		return maxExtractedBytes
	}
	return max(maxUpload*extractRatio, maxDocumentBytes)
}

// textBudget counts the bytes left before an upload's text goes over its limit.
type textBudget struct {
	remaining int64
}

// read returns up to maxDocumentBytes of r, failing with errExtractLimit
// once the budget runs out.
func (b *textBudget) read(r io.Reader) ([]byte, error) {
	n := int64(maxDocumentBytes)
	capped := b.remaining < n
	if capped {
		n = b.remaining + 1
	}
	data, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if capped && int64(len(data)) > b.remaining {
		return nil, errExtractLimit
	}
	b.remaining -= int64(len(data))
	return data, nil
}

// extractDocuments reads the documents contained in the file called name,
// holding at most limit bytes of text.
func extractDocuments(name string, r io.ReaderAt, size, limit int64) ([]Document, error) {
	budget := &textBudget{remaining: limit}
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case textExtensions[ext]:
		doc, err := textDocument(name, io.NewSectionReader(r, 0, size), budget)
		if err != nil {
			return nil, err
		}
		return nonEmpty(doc), nil
	case htmlExtensions[ext]:
		doc, err := htmlDocument(name, io.NewSectionReader(r, 0, size), budget)
		if err != nil {
			return nil, err
		}
		return nonEmpty(doc), nil
	case ext == ".zip":
		return zipDocuments(r, size, budget)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, ext)
	}
}

func nonEmpty(docs ...Document) []Document {
	out := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			out = append(out, d)
		}
	}
	return out
}

// zipDocuments indexes every text or HTML entry of an archive, the way a
// Project Gutenberg harvest ships books.
func zipDocuments(r io.ReaderAt, size int64, budget *textBudget) ([]Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docs []Document
	for i, f := range zr.File {
		if i >= maxZipEntries {
			break
		}
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		ext := strings.ToLower(path.Ext(name))
		if !textExtensions[ext] && !htmlExtensions[ext] {
			continue
		}

		// The header size may lie; budget.read still counts what is inflated.
		if min(f.UncompressedSize64, maxDocumentBytes) > uint64(budget.remaining) {
			return nil, fmt.Errorf("zip entry %s: %w", f.Name, errExtractLimit)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		var doc Document
		if htmlExtensions[ext] {
			doc, err = htmlDocument(name, rc, budget)
		} else {
			doc, err = textDocument(name, rc, budget)
		}
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		docs = append(docs, doc)
	}
	return nonEmpty(docs...), nil
}

func textDocument(name string, r io.Reader, budget *textBudget) (Document, error) {
	b, err := budget.read(r)
	if err != nil {
		return Document{}, err
	}
	content := cleanText(string(b))

	title := headerTitle(content)
	if title == "" {
		title = titleFromName(name)
	}
	return Document{Title: title, Content: content}, nil
}

func htmlDocument(name string, r io.Reader, budget *textBudget) (Document, error) {
	b, err := budget.read(r)
	if err != nil {
		return Document{}, err
	}
	title, text, err := htmlText(bytes.NewReader(b))
	if err != nil {
		return Document{}, err
	}
	if title == "" {
		title = titleFromName(name)
	}
	return Document{Title: title, Content: text}, nil
}

// htmlText returns the <title> and the visible text of an HTML document.
func htmlText(r io.Reader) (title, text string, err error) {
	z := html.NewTokenizer(r)
	var b, t strings.Builder
	skip := 0
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return collapse(t.String()), collapse(b.String()), nil
			}
			return "", "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				skip++
			case "title":
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				if skip > 0 {
					skip--
				}
			case "title":
				inTitle = false
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if inTitle {
				t.Write(z.Text())
				continue
			}
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

// headerTitle finds a "Title: ..." line near the top of a plain-text book.
func headerTitle(content string) string {
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for i := 0; i < titleScanLines && sc.Scan(); i++ {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "Title:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func titleFromName(name string) string {
	base := path.Base(filepath.ToSlash(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return collapse(base)
}

// cleanText makes s storable as Postgres TEXT: valid UTF-8 without NULs.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "�")
	return strings.ReplaceAll(s, "\x00", "")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(cleanText(s)), " ")
}
