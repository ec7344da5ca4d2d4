package source

import (
	"context"
	"testing"

	"github.com/perdixsw/jambi/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registered(t *testing.T, version int64, name string) *migration.Migration {
	t.Helper()

	m, err := migration.New(version, name, func(migration.Mutator) ([]migration.Operation, error) {
		return nil, nil
	})
	require.NoError(t, err)
	return m
}

func Test_RegistrySortsMigrations(t *testing.T) {
	s, err := NewRegistrySource(
		registered(t, 3, ""),
		registered(t, 1, ""),
		registered(t, 10, ""),
	)
	require.NoError(t, err)

	migrations, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"version_1", "version_3", "version_10"}, migrations.Keys())
}

func Test_RegistryPreservesRegistrationOrderOnTies(t *testing.T) {
	s, err := NewRegistrySource(
		registered(t, 2, "first"),
		registered(t, 2, "second"),
		registered(t, 1, ""),
	)
	require.NoError(t, err)

	migrations, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "first", migrations[1].Name)
	assert.Equal(t, "second", migrations[2].Name)
}

func Test_EmptyRegistryIsRejected(t *testing.T) {
	_, err := NewRegistrySource()
	assert.Equal(t, ErrNoMigrations, err)
}

func Test_DiscoverReturnsACopy(t *testing.T) {
	s, err := NewRegistrySource(registered(t, 1, ""), registered(t, 2, ""))
	require.NoError(t, err)

	first, err := s.Discover(context.Background())
	require.NoError(t, err)
	first[0], first[1] = first[1], first[0]

	second, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"version_1", "version_2"}, second.Keys())
}
