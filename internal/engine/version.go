// Package engine describes the command-engine runtime embedded in revbox.
package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// RuntimeVersion is the engine runtime revbox was built against.
// Set via ldflags at build time.
var RuntimeVersion = "3.7"

// Version is an engine runtime version.
type Version struct {
	Major int
	Minor int
}

// The 3.0 through 3.5 engines mis-handle deferred module loading, so the
// whole range is excluded from the feature. 2.x engines and 3.6+ are fine.
var (
	deferredExcludedMin = Version{Major: 3, Minor: 0}
	deferredExcludedMax = Version{Major: 3, Minor: 5}
)

var (
	currentOnce sync.Once
	current     Version
)

// Current returns the engine version this binary embeds, parsed once from
// RuntimeVersion. An unparsable build string falls back to the default.
func Current() Version {
	currentOnce.Do(func() {
		v, err := Parse(RuntimeVersion)
		if err != nil {
			v = Version{Major: 3, Minor: 7}
		}
		current = v
	})
	return current
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid engine version %q", s)
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return Version{}, fmt.Errorf("invalid engine version %q", s)
	}
	min, err := strconv.Atoi(minor)
	if err != nil {
		return Version{}, fmt.Errorf("invalid engine version %q", s)
	}
	if maj < 0 || min < 0 {
		return Version{}, fmt.Errorf("invalid engine version %q", s)
	}
	return Version{Major: maj, Minor: min}, nil
}

// String returns the "major.minor" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0, or 1 when v is lower than, equal to, or higher
// than o.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// SupportsDeferredLoading reports whether this engine version handles the
// deferred-loading mechanism correctly. An unsupported version is not an
// error; the feature is simply skipped.
func (v Version) SupportsDeferredLoading() bool {
	return v.Compare(deferredExcludedMin) < 0 || v.Compare(deferredExcludedMax) > 0
}
