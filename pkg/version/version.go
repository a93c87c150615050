package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version of bijou.
const (
	Major = 0
	Minor = 3
	Patch = 0
)

var (
	ErrInvalidVersion = errors.New("invalid version")
	ErrIncompatible   = errors.New("incompatible version")
)

type Version struct {
	Major int
	Minor int
	Patch int
}

func Current() Version {
	return Version{Major: Major, Minor: Minor, Patch: Patch}
}

func String() string {
	return Current().String()
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q (expected x.y.z)", ErrInvalidVersion, s)
	}

	var out [3]int
	for i, name := range []string{"major", "minor", "patch"} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q (invalid %s)", ErrInvalidVersion, s, name)
		}
		out[i] = n
	}

	return Version{Major: out[0], Minor: out[1], Patch: out[2]}, nil
}

func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

// CheckCompatible rejects config written for a newer bijou, or for another
// major version.
func CheckCompatible(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	want, err := Parse(s)
	if err != nil {
		return err
	}
	cur := Current()
	if want.Major != cur.Major || want.Compare(cur) > 0 {
		return fmt.Errorf("%w: config requires %s, running %s", ErrIncompatible, want, cur)
	}
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
