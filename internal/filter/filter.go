// Package filter decides which vlog targets are forwarded to the viewer.
package filter

import (
	"os"
	"sort"
	"strings"
)

// EnvVar is the environment variable holding the comma-separated list of
// allowed target prefixes. Absence or emptiness means "allow all targets".
const EnvVar = "WEB_VLOG"

// Set is an immutable collection of target prefix rules. An empty Set allows
// every target; otherwise a target is allowed iff it starts with at least one
// rule. Matching is case-sensitive with no wildcards.
//
// A Set is safe for concurrent use without synchronization because it is
// never mutated after construction.
type Set struct {
	rules []string
}

// New builds a Set from raw rule strings. Rules are trimmed of surrounding
// whitespace and empty rules are discarded. The remaining rules are sorted
// and deduplicated; order never affects matching.
func New(rules []string) *Set {
	cleaned := make([]string, 0, len(rules))
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule != "" {
			cleaned = append(cleaned, rule)
		}
	}
	sort.Strings(cleaned)
	cleaned = dedup(cleaned)
	return &Set{rules: cleaned}
}

// Parse builds a Set from a comma-separated rule list.
func Parse(list string) *Set {
	return New(strings.Split(list, ","))
}

// FromEnv builds a Set from the WEB_VLOG environment variable.
func FromEnv() *Set {
	return Parse(os.Getenv(EnvVar))
}

// Enabled reports whether a message with the given target should be forwarded.
func (s *Set) Enabled(target string) bool {
	if len(s.rules) == 0 {
		return true
	}
	for _, rule := range s.rules {
		if strings.HasPrefix(target, rule) {
			return true
		}
	}
	return false
}

// Empty reports whether the Set carries no rules (allow-all).
func (s *Set) Empty() bool {
	return len(s.rules) == 0
}

// Rules returns a copy of the rule list.
func (s *Set) Rules() []string {
	out := make([]string, len(s.rules))
	copy(out, s.rules)
	return out
}

func dedup(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, r := range sorted[1:] {
		if r != out[len(out)-1] {
			out = append(out, r)
		}
	}
	return out
}
