// Package featureflags evaluates operator-controlled switches for optional forum features.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags gating optional features. A flag that is not configured leaves its feature on.
const (
	AIChat        = "ai_chat"
	AISuggestions = "ai_suggestions"
)

// Manager evaluates feature flags parsed from FEATURE_FLAGS.
// Example: "ai_chat=off,ai_suggestions=25%"
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated list of name=value pairs. Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Defined reports whether name was configured at all.
func (m *Manager) Defined(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.flags[normalize(name)]
	return ok
}

// Allows reports whether the feature behind name is available to userID.
// Unconfigured flags allow; configured ones are evaluated by Enabled.
func (m *Manager) Allows(name string, userID uint) bool {
	if !m.Defined(name) {
		return true
	}
	return m.Enabled(name, userID)
}

// Enabled returns whether a configured flag is on for userID.
// Values are on/true/1, off/false/0, or N% for a deterministic per-user rollout.
// Anonymous callers (userID 0) only pass a 100% rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Snapshot returns the evaluated state of every configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
