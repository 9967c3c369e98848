package service

import (
	"encoding/json"
	"log/slog"

	"github.com/iconidentify/canary/internal/cache"
	"github.com/iconidentify/canary/internal/event"
	"github.com/iconidentify/canary/internal/store"
)

// MinimumTopicCount is the fewest topics a valid preference set may hold.
const MinimumTopicCount = 3

// Preferences provides typed, synchronous access to the preference flags
// mirrored in the cache, and owns the first-run save flow.
type Preferences struct {
	cache  *cache.Cache
	bus    *event.Bus
	logger *slog.Logger
}

// NewPreferences creates the preferences helper.
func NewPreferences(c *cache.Cache, bus *event.Bus, logger *slog.Logger) *Preferences {
	return &Preferences{cache: c, bus: bus, logger: logger}
}

// Topics returns the selected topic preferences, empty until set.
func (p *Preferences) Topics() []string {
	raw, ok := p.cache.GetValue(store.KeyPreferenceList)
	if !ok {
		return nil
	}
	var topics []string
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		p.logger.Warn("malformed preference list", "error", err)
		return nil
	}
	return topics
}

// VerifiedOnly reports the verified-users-only timeline preference.
func (p *Preferences) VerifiedOnly() bool {
	return p.boolFlag(store.KeyVerifiedOnly)
}

// ShareCardHidden reports whether the timeline share card was dismissed.
func (p *Preferences) ShareCardHidden() bool {
	return p.boolFlag(store.KeyShareCardHidden)
}

// RedirectModalHidden reports whether the external-redirect confirmation
// has been permanently dismissed.
func (p *Preferences) RedirectModalHidden() bool {
	return p.boolFlag(store.KeyRedirectModalHidden)
}

// InitialPreferencesSet reports whether the first-run flow completed.
func (p *Preferences) InitialPreferencesSet() bool {
	return p.boolFlag(store.KeyInitialPreferencesSet)
}

func (p *Preferences) boolFlag(key string) bool {
	raw, ok := p.cache.GetValue(key)
	if !ok {
		return false
	}
	var value bool
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return false
	}
	return value
}

// Save stores the topic list and the verified-only flag, then signals
// the shell: a timeline refresh when preferences already existed, or the
// switch out of the first-run stack when this is the initial save.
func (p *Preferences) Save(topics []string, verifiedOnly bool) error {
	rawTopics, err := json.Marshal(topics)
	if err != nil {
		return err
	}

	alreadySet := p.InitialPreferencesSet()

	p.cache.SetValue(store.KeyPreferenceList, string(rawTopics))
	p.cache.SetValue(store.KeyVerifiedOnly, marshalBool(verifiedOnly))

	if alreadySet {
		p.bus.Emit(event.TopicUpdateTimeline, nil)
		return nil
	}

	p.cache.SetValue(store.KeyInitialPreferencesSet, "true")
	p.bus.Emit(event.TopicSwitchToHomeStack, nil)
	return nil
}

// SetShareCardHidden dismisses the timeline share card.
func (p *Preferences) SetShareCardHidden(hidden bool) {
	p.cache.SetValue(store.KeyShareCardHidden, marshalBool(hidden))
}

// SetRedirectModalHidden dismisses the redirect confirmation permanently.
func (p *Preferences) SetRedirectModalHidden(hidden bool) {
	p.cache.SetValue(store.KeyRedirectModalHidden, marshalBool(hidden))
}

func marshalBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
