package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the board's bindings. Date edits behave like a drag: they
// apply at once, are written after the debounce, and suppress the detail
// view for the interaction grace.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	ShiftEarly  key.Binding
	ShiftLate   key.Binding
	WeekEarly   key.Binding
	WeekLate    key.Binding
	Shrink      key.Binding
	Extend      key.Binding
	OrderUp     key.Binding
	OrderDown   key.Binding
	CycleSort   key.Binding
	Detail      key.Binding
	Complete    key.Binding
	Dismiss     key.Binding
	TogglePhase key.Binding
	Reload      key.Binding
	Close       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		ShiftEarly:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "1 day earlier")),
		ShiftLate:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "1 day later")),
		WeekEarly:   key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "1 week earlier")),
		WeekLate:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "1 week later")),
		Shrink:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "end 1 day earlier")),
		Extend:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "end 1 day later")),
		OrderUp:     key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up in list")),
		OrderDown:   key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down in list")),
		CycleSort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		Detail:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Complete:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle complete")),
		Dismiss:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss warnings")),
		TogglePhase: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "phases")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ShiftEarly, k.ShiftLate, k.Detail, k.CycleSort, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.OrderUp, k.OrderDown, k.CycleSort},
		{k.ShiftEarly, k.ShiftLate, k.WeekEarly, k.WeekLate, k.Shrink, k.Extend},
		{k.Detail, k.Complete, k.Dismiss, k.TogglePhase},
		{k.Reload, k.Close, k.Help, k.Quit},
	}
}
