package state

import "sync"

// UIFlags are the transient presentation flags.
type UIFlags struct {
	MenuOpen    bool `json:"menuOpen"`
	FiltersOpen bool `json:"filtersOpen"`
}

// UI holds UIFlags in memory only. Flags reset on restart.
type UI struct {
	mu    sync.Mutex
	flags UIFlags
	hub   hub[UIFlags]
}

// NewUI returns a UI store with every flag closed.
func NewUI() *UI {
	return &UI{}
}

// Snapshot returns the current flags.
func (u *UI) Snapshot() UIFlags {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.flags
}

// SetMenuOpen sets the menu flag.
func (u *UI) SetMenuOpen(open bool) UIFlags {
	return u.update(func(f *UIFlags) { f.MenuOpen = open })
}

// ToggleMenu flips the menu flag.
func (u *UI) ToggleMenu() UIFlags {
	return u.update(func(f *UIFlags) { f.MenuOpen = !f.MenuOpen })
}

// SetFiltersOpen sets the filters flag.
func (u *UI) SetFiltersOpen(open bool) UIFlags {
	return u.update(func(f *UIFlags) { f.FiltersOpen = open })
}

// ToggleFilters flips the filters flag.
func (u *UI) ToggleFilters() UIFlags {
	return u.update(func(f *UIFlags) { f.FiltersOpen = !f.FiltersOpen })
}

// Subscribe returns a channel receiving the flags after every change.
func (u *UI) Subscribe() (<-chan UIFlags, func()) {
	return u.hub.subscribe()
}

func (u *UI) update(fn func(*UIFlags)) UIFlags {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(&u.flags)
	u.hub.publish(u.flags)
	return u.flags
}
