package id

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produces opaque transaction IDs.
type Generator func() string

// New returns a fresh random transaction ID.
func New() string {
	return uuid.NewString()
}

// Sequence returns a Generator yielding "<prefix>-001", "<prefix>-002", ...
// Useful where stable IDs matter, such as tests and fixtures.
func Sequence(prefix string) Generator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

// Short returns the first dash-separated segment of an ID for compact display.
// "0b7c2f1e-5d1a-4c8e-..." -> "0b7c2f1e"
func Short(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// Resolve finds the single ID in candidates equal to ref or starting with it.
// Returns false when nothing matches or the prefix is ambiguous.
func Resolve(ref string, candidates []string) (string, bool) {
	if ref == "" {
		return "", false
	}
	match := ""
	for _, c := range candidates {
		if c == ref {
			return c, true
		}
		if strings.HasPrefix(c, ref) {
			if match != "" {
				return "", false
			}
			match = c
		}
	}
	return match, match != ""
}
