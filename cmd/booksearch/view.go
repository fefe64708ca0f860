package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"book-search/internal/client"
)

// syncWriter serialises whole writes from concurrent uploads.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// lineView prints one line per event, prefixed with the file it is about.
type lineView struct {
	prefix string
	out    io.Writer
	errOut io.Writer
}

func (v *lineView) ShowResults(results []string) {
	for _, r := range results {
		v.printf("%s", r)
	}
}

func (v *lineView) ShowError(err error) {
	fmt.Fprintf(v.errOut, "%s: error: %v\n", v.prefix, err)
}

func (v *lineView) printf(format string, args ...any) {
	fmt.Fprintf(v.out, "%s: "+format+"\n", append([]any{v.prefix}, args...)...)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// tableView renders results as a bordered table, one row per result.
type tableView struct {
	out    io.Writer
	errOut io.Writer
}

func (v *tableView) ShowResults(results []string) {
	if len(results) == 0 {
		fmt.Fprintln(v.out, "No results.")
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("#", "Result").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, r := range results {
		t.Row(strconv.Itoa(i+1), r)
	}
	fmt.Fprintln(v.out, t.String())
}

func (v *tableView) ShowError(err error) {
	fmt.Fprintln(v.errOut, errorStyle.Render("Error: "+err.Error()))
}

// jsonView prints the results as a JSON array.
type jsonView struct {
	out    io.Writer
	errOut io.Writer
}

func (v *jsonView) ShowResults(results []string) {
	enc := json.NewEncoder(v.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)
}

func (v *jsonView) ShowError(err error) {
	fmt.Fprintf(v.errOut, "Error: %v\n", err)
}

// htmlView prints the escaped paragraphs the web page would show.
type htmlView struct {
	client.HTMLView
	out    io.Writer
	errOut io.Writer
}

func (v *htmlView) ShowResults(results []string) {
	v.HTMLView.ShowResults(results)
	fmt.Fprintln(v.out, v.Markup())
}

func (v *htmlView) ShowError(err error) {
	v.HTMLView.ShowError(err)
	fmt.Fprintln(v.errOut, v.Status())
}
