// Package version implements the three-component scan version and the
// bounded, newest-first history of change-bearing scans.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Initial is the version of a store with no prior scans.
	Initial = "1.0.0"

	// fallback replaces a malformed previous version on advance.
	fallback = "1.0.1"
)

// Advance returns the next version. Without changes the version is
// returned untouched. Each component ranges 0-9 with carry: patch
// overflow bumps minor, minor overflow bumps major. A previous version
// that does not parse degrades to a fixed fallback instead of failing.
func Advance(current string, hasChanges bool) string {
	if !hasChanges {
		return current
	}

	major, minor, patch, err := parse(current)
	if err != nil {
		return fallback
	}

	patch++
	if patch > 9 {
		patch = 0
		minor++
		if minor > 9 {
			minor = 0
			major++
		}
	}

	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

func parse(v string) (major, minor, patch int, err error) {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("version %q: want 3 components, got %d", v, len(parts))
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("version %q: %w", v, err)
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("version %q: %w", v, err)
	}
	if patch, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, fmt.Errorf("version %q: %w", v, err)
	}
	return major, minor, patch, nil
}
