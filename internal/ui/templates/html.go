// Package templates renders the dashboard page and the fragments patched into
// it over SSE.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter writes markup and remembers the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// el writes <tag class="class">text</tag> with text escaped.
func (h *htmlWriter) el(tag, class, text string) {
	h.raw("<" + tag)
	if class != "" {
		h.raw(` class="` + templ.EscapeString(class) + `"`)
	}
	h.raw(">")
	h.text(text)
	h.raw("</" + tag + ">")
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(h)
		return h.err
	})
}

// Render renders c to a string, for SSE patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
