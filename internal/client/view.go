package client

import (
	"html/template"
	"io"
	"strings"
	"sync"
)

// View is the results container a search renders into, plus the place
// failures are shown.
type View interface {
	// ShowResults replaces the container's content with one entry per result.
	ShowResults(results []string)
	// ShowError displays a failed submission.
	ShowError(err error)
}

var (
	paragraphsTmpl = template.Must(template.New("results").Parse(`{{range .}}<p>{{.}}</p>{{end}}`))
	errorTmpl      = template.Must(template.New("error").Parse(`<p class="error">{{.}}</p>`))
)

// RenderParagraphs writes one escaped <p> element per result.
func RenderParagraphs(w io.Writer, results []string) error {
	return paragraphsTmpl.Execute(w, results)
}

// RenderError writes err as an escaped <p class="error"> element.
func RenderError(w io.Writer, err error) error {
	return errorTmpl.Execute(w, err.Error())
}

// HTMLView keeps the rendered markup of a results container and a status
// line in memory. It is safe for concurrent use.
type HTMLView struct {
	mu     sync.RWMutex
	markup string
	status string
}

func (v *HTMLView) ShowResults(results []string) {
	var b strings.Builder
	_ = RenderParagraphs(&b, results)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.markup = b.String()
	v.status = ""
}

func (v *HTMLView) ShowError(err error) {
	if err == nil {
		return
	}
	var b strings.Builder
	_ = RenderError(&b, err)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = b.String()
}

// Markup returns the current content of the results container.
func (v *HTMLView) Markup() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.markup
}

// Status returns the current error markup, empty after a successful search.
func (v *HTMLView) Status() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}
