//go:build js && wasm

package main

import "syscall/js"

// domView renders into the page's #results and #status elements through
// textContent, so result text is never parsed as markup.
type domView struct {
	doc     js.Value
	results js.Value
	status  js.Value
}

func newDOMView(doc js.Value) *domView {
	return &domView{
		doc:     doc,
		results: doc.Call("getElementById", "results"),
		status:  doc.Call("getElementById", "status"),
	}
}

func (v *domView) ShowResults(results []string) {
	v.results.Call("replaceChildren")
	for _, r := range results {
		p := v.doc.Call("createElement", "p")
		p.Set("textContent", r)
		v.results.Call("appendChild", p)
	}
	v.status.Set("textContent", "")
}

func (v *domView) ShowError(err error) {
	if err == nil {
		return
	}
	v.status.Set("textContent", err.Error())
}
