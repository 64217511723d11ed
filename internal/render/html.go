package render

import (
	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
	"github.com/dbuatti/danielebuatti-sub000/internal/view"
)

// HTMLRenderer turns a quote into the themed public document page.
type HTMLRenderer struct {
	engine *view.Engine
}

// NewHTMLRenderer wraps a template engine.
func NewHTMLRenderer(engine *view.Engine) *HTMLRenderer {
	return &HTMLRenderer{engine: engine}
}

// HTML builds the document view-model and executes the page template.
func (r *HTMLRenderer) HTML(q *quotes.Quote) (string, error) {
	doc, err := BuildDocument(q)
	if err != nil {
		return "", err
	}
	return r.engine.RenderToString("quote.html", doc)
}

// Themes lists the available themes for the builder's picker.
func (r *HTMLRenderer) Themes() []quotes.ThemeOption {
	all := Themes()
	out := make([]quotes.ThemeOption, 0, len(all))
	for _, t := range all {
		out = append(out, quotes.ThemeOption{ID: t.ID, Name: t.Name})
	}
	return out
}
