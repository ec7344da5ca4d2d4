package jambi

import (
	"strconv"
	"strings"

	"github.com/perdixsw/jambi/internal/database"
	"github.com/pkg/errors"
)

func LatestTarget() Target {
	return database.LatestTarget()
}

func VersionTarget(v int64) Target {
	return database.VersionTarget(v)
}

// ParseTarget normalizes a caller-supplied upgrade target: an empty
// string or "latest" means the highest discovered version, a base-10
// non-negative integer is a bounded target, anything else fails with
// ErrInvalidTarget before any database contact.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "latest" {
		return database.LatestTarget(), nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "%q", s)
	}

	return database.VersionTarget(v), nil
}
