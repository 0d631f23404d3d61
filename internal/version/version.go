// Package version parses and compares dotted-numeric language releases such
// as "8.2" or "8.1.4".
package version

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalid is returned for text that is not a dotted-numeric version.
var ErrInvalid = errors.New("version: invalid version")

// Version is a parsed release number. The zero value is not valid.
type Version struct {
	v *semver.Version
}

// Parse parses a release such as "8", "8.2" or "8.2.1". Missing components
// are zero, so "8.2" and "8.2.0" compare equal.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "v") || strings.HasPrefix(s, "V") {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q: only numeric components are allowed", ErrInvalid, s)
	}
	return Version{v: v}, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

// Compare returns -1, 0 or +1 as v is less than, equal to or greater than w.
func (v Version) Compare(w Version) int {
	return v.v.Compare(w.v)
}

// Less reports whether v is strictly older than w.
func (v Version) Less(w Version) bool {
	return v.v.LessThan(w.v)
}

// String renders major.minor, adding the patch only when it is non-zero.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	if v.v.Patch() != 0 {
		return fmt.Sprintf("%d.%d.%d", v.v.Major(), v.v.Minor(), v.v.Patch())
	}
	return fmt.Sprintf("%d.%d", v.v.Major(), v.v.Minor())
}

// ParseList parses a comma separated list, dropping duplicates and returning
// the versions oldest first.
func ParseList(s string) ([]Version, error) {
	var out []Version
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		out = append(out, v)
	}
	Sort(out)
	return out, nil
}

// Sort orders versions oldest first.
func Sort(vs []Version) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
}
