//go:build js && wasm

// Command webui binds the upload and search forms of the book-search page
// to the Go client. Build with GOOS=js GOARCH=wasm and serve the output as
// /webui/webui.wasm next to the Go distribution's wasm_exec.js.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"go.uber.org/zap"

	"book-search/internal/client"
	"book-search/internal/logging"
)

func main() {
	base, err := logging.New("info", "json")
	if err != nil {
		base = zap.NewNop()
	}
	logger := logging.Service(base, "webui")

	doc := js.Global().Get("document")
	origin := js.Global().Get("location").Get("origin").String()

	c, err := client.New(origin, client.WithLogger(logger))
	if err != nil {
		logger.Error("client", zap.Error(err))
		return
	}

	view := newDOMView(doc)
	forms := client.NewForms(c, view)

	b := &binding{doc: doc, forms: forms, logger: logger}
	b.listen("uploadForm", b.onUpload)
	b.listen("searchForm", b.onSearch)
	logger.Info("forms bound", zap.String("origin", origin))

	// The callbacks live as long as the page.
	select {}
}

type binding struct {
	doc    js.Value
	forms  *client.Forms
	logger *zap.Logger
	funcs  []js.Func
}

// listen registers handler for the submit event of the form with id. The
// default navigation is always suppressed; handler runs on its own
// goroutine because callbacks must not block the event loop.
func (b *binding) listen(id string, handler func()) {
	form := b.doc.Call("getElementById", id)
	if form.IsNull() {
		b.logger.Warn("form not found", zap.String("id", id))
		return
	}
	fn := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			args[0].Call("preventDefault")
		}
		go handler()
		return nil
	})
	b.funcs = append(b.funcs, fn)
	form.Call("addEventListener", "submit", fn)
}

func (b *binding) onUpload() {
	ctx := context.Background()

	var file *client.File
	files := b.doc.Call("getElementById", "fileInput").Get("files")
	if files.Truthy() && files.Get("length").Int() > 0 {
		f := files.Index(0)
		data, err := readFile(f)
		if err != nil {
			b.forms.UploadFailed(fmt.Errorf("read %s: %w", f.Get("name").String(), err))
			return
		}
		file = &client.File{Name: f.Get("name").String(), Content: bytes.NewReader(data)}
	}

	_, _ = b.forms.SubmitUpload(ctx, file)
}

func (b *binding) onSearch() {
	query := b.doc.Call("getElementById", "searchQuery").Get("value").String()
	err := b.forms.SubmitSearch(context.Background(), query)
	if err != nil && !errors.Is(err, client.ErrStaleResponse) {
		b.logger.Debug("search", zap.Error(err))
	}
}

// readFile resolves f.arrayBuffer() and copies the bytes into Go memory.
func readFile(f js.Value) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	var then, catch js.Func
	then = js.FuncOf(func(_ js.Value, args []js.Value) any {
		defer then.Release()
		defer catch.Release()
		arr := js.Global().Get("Uint8Array").New(args[0])
		data := make([]byte, arr.Get("length").Int())
		js.CopyBytesToGo(data, arr)
		done <- result{data: data}
		return nil
	})
	catch = js.FuncOf(func(_ js.Value, args []js.Value) any {
		defer then.Release()
		defer catch.Release()
		msg := "read failed"
		if len(args) > 0 {
			msg = args[0].Call("toString").String()
		}
		done <- result{err: errors.New(msg)}
		return nil
	})
	f.Call("arrayBuffer").Call("then", then).Call("catch", catch)

	r := <-done
	return r.data, r.err
}
