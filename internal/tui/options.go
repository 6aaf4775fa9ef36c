package tui

import "github.com/sundvall/ordna/internal/app"

type Option func(*Model)

// WithSession sets the viewer identity the board renders and moves as.
func WithSession(session app.Session) Option {
	return func(m *Model) {
		m.session = session
	}
}

// WithBoardOptions seeds the initial grouping options. Search is always
// owned by the model's own input; a preset search is ignored.
func WithBoardOptions(opts app.BoardOptions) Option {
	return func(m *Model) {
		if opts.Sort != "" {
			m.sort = opts.Sort
		}
		m.includeCancel = opts.IncludeCancel
		m.singleColumn = opts.SingleColumn
		m.singleColumnName = opts.SingleColumnName
	}
}

// WithTouchMode marks the terminal as a touch-style device, which disables
// the drop path on the move controller.
func WithTouchMode(enabled bool) Option {
	return func(m *Model) {
		m.touch = enabled
	}
}

// WithConfirmBridge connects the transition service's confirmation port to
// the model's cancel modal.
func WithConfirmBridge(bridge *ConfirmBridge) Option {
	return func(m *Model) {
		m.confirmBridge = bridge
	}
}
