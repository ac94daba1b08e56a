package keys

import (
	"github.com/gdamore/tcell/v2"
)

// Action is a key bound to a handler.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches reports whether ev triggers the action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Hint is the menu rendering of a visible action.
type Hint struct {
	Key         string
	Description string
}

// Registry holds bindings per view plus a global scope. Registration order
// is kept so hints and dispatch are deterministic.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a binding active in every view.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a binding active only in view.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Hints lists the visible bindings of view followed by the global ones.
func (r *Registry) Hints(view string) []Hint {
	var hints []Hint
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if a.Visible {
				hints = append(hints, Hint{Key: a.label(), Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent runs the first binding of view, then of the global scope,
// that matches ev. It reports whether one ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}

func (a *Action) label() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	if name, ok := tcell.KeyNames[a.Key]; ok {
		return name
	}
	return "?"
}
