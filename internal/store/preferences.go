package store

import (
	"context"

	"github.com/spec-kit/helpdesk-tracker/internal/persistence"
)

// themeKey holds the boolean dark-theme preference, the second logical key
// of the session store.
const themeKey = "theme"

// Preferences persists small per-session display settings through the same
// adapter as the ticket collection.
type Preferences struct {
	session persistence.SessionStore
}

// NewPreferences constructs the preference accessor.
func NewPreferences(session persistence.SessionStore) *Preferences {
	return &Preferences{session: session}
}

// DarkMode returns the stored flag, defaulting to false when absent or
// unreadable.
func (p *Preferences) DarkMode(ctx context.Context) bool {
	var enabled bool
	if p.session == nil || !p.session.Load(ctx, themeKey, &enabled) {
		return false
	}
	return enabled
}

// SetDarkMode stores the flag. Best-effort, like every adapter write.
func (p *Preferences) SetDarkMode(ctx context.Context, enabled bool) {
	if p.session == nil {
		return
	}
	p.session.Save(ctx, themeKey, enabled)
}
