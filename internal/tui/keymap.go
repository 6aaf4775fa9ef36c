package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	reload       key.Binding
	toggleHelp   key.Binding
	colLeft      key.Binding
	colRight     key.Binding
	cardUp       key.Binding
	cardDown     key.Binding
	search       key.Binding
	cycleSort    key.Binding
	toggleCancel key.Binding
	toggleFlat   key.Binding
	orderInfo    key.Binding
	move         key.Binding
	confirm      key.Binding
	back         key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		colLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		colRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		cardUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "order up")),
		cardDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "order down")),
		search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		cycleSort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		toggleCancel: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle cancel column")),
		toggleFlat:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "toggle flat view")),
		orderInfo:    key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "order info")),
		move:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move order")),
		confirm:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.move, k.orderInfo, k.search, k.cycleSort, k.reload, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.move, k.orderInfo, k.search, k.cycleSort, k.reload, k.toggleHelp, k.quit},
		{k.colLeft, k.colRight, k.cardUp, k.cardDown},
		{k.toggleCancel, k.toggleFlat, k.confirm, k.back},
	}
}
