package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minRemarkWrap keeps glamour from wrapping remarks into unreadable slivers
// when the info overlay is squeezed by a narrow terminal.
const minRemarkWrap = 24

// remarkRenderer turns an order's markdown remark into ANSI-styled text for
// the info overlay. Glamour renderers are bound to a wrap width at
// construction, so the renderer is rebuilt whenever the overlay width moves.
type remarkRenderer struct {
	wrap     int
	renderer *glamour.TermRenderer
}

func (r *remarkRenderer) ensure(width int) error {
	if width < minRemarkWrap {
		width = minRemarkWrap
	}
	if r.renderer != nil && r.wrap == width {
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	r.renderer, r.wrap = renderer, width
	return nil
}

// render returns the styled remark, or the raw text when rendering fails so
// the overlay always shows something.
func (r *remarkRenderer) render(remark string, width int) string {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return ""
	}
	if err := r.ensure(width); err != nil {
		return remark
	}
	out, err := r.renderer.Render(remark)
	if err != nil {
		return remark
	}
	return strings.TrimRight(out, "\n")
}
