package migration

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var ErrInvalidVersion = errors.New("invalid migration version")
var ErrNotAMigrationName = errors.New("not a valid migration name")

// FilePrefix is the naming convention every discoverable migration
// follows: version_<N> where N is a base-10 positive integer.
const FilePrefix = "version_"

var nameRegexp = regexp.MustCompile(`^version_(\d+)$`)

type (
	// Operation is whatever the schema-mutation collaborator produces.
	// The engine never inspects it, it only carries it from the producer
	// back to the collaborator's Apply.
	Operation interface{}

	// Mutator is the schema-mutation handle handed to every migration.
	// Concrete implementations live outside the engine, see sqlschema.
	Mutator interface {
		Apply(ctx context.Context, ops ...Operation) error
	}

	// Producer obtains the ordered operations of a single migration.
	// It must not touch the database itself, only describe changes.
	Producer func(m Mutator) ([]Operation, error)

	Migration struct {
		Key     string
		Name    string
		Version int64
		Produce Producer
	}
)

type Migrations []*Migration

func (m Migrations) Len() int {
	return len(m)
}

func (m Migrations) Less(i, j int) bool {
	return m[i].Version < m[j].Version
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m Migrations) Keys() (result []string) {
	for i := range m {
		result = append(result, m[i].Key)
	}
	return result
}

// MaxVersion returns the highest version among the migrations
// or 0 when there are none.
func (m Migrations) MaxVersion() int64 {
	var max int64
	for i := range m {
		if m[i].Version > max {
			max = m[i].Version
		}
	}
	return max
}

func New(version int64, name string, p Producer) (*Migration, error) {
	if version <= 0 {
		return nil, errors.Wrapf(ErrInvalidVersion, "%d", version)
	}

	return &Migration{
		Key:     CreateKey(version),
		Name:    name,
		Version: version,
		Produce: p,
	}, nil
}

func CreateKey(version int64) string {
	return fmt.Sprintf("%s%d", FilePrefix, version)
}

// VersionFromName extracts the numeric version from a version_<N> name.
func VersionFromName(name string) (int64, error) {
	matches := nameRegexp.FindStringSubmatch(name)
	if len(matches) < 2 {
		return 0, errors.Wrapf(ErrNotAMigrationName, "%s", name)
	}

	v, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidVersion, "%s", matches[1])
	}

	if v <= 0 {
		return 0, errors.Wrapf(ErrInvalidVersion, "%d", v)
	}

	return v, nil
}
