package migration

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_VersionCanBeExtractedFromName(t *testing.T) {
	tt := []struct {
		name    string
		version int64
	}{
		{"version_1", 1},
		{"version_7", 7},
		{"version_10", 10},
		{"version_201", 201},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			v, err := VersionFromName(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.version, v)
		})
	}
}

func Test_InvalidNamesAreRejected(t *testing.T) {
	tt := []struct {
		name string
		err  error
	}{
		{"version_", ErrNotAMigrationName},
		{"version_abc", ErrNotAMigrationName},
		{"ver_7", ErrNotAMigrationName},
		{"version_7_extra", ErrNotAMigrationName},
		{"version_0", ErrInvalidVersion},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VersionFromName(tc.name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err))
		})
	}
}

func Test_MigrationsSortAscendingByVersion(t *testing.T) {
	var migrations Migrations
	for _, v := range []int64{3, 1, 10} {
		m, err := New(v, "", nil)
		require.NoError(t, err)
		migrations = append(migrations, m)
	}

	sort.Stable(migrations)

	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, int64(3), migrations[1].Version)
	assert.Equal(t, int64(10), migrations[2].Version)
	assert.Equal(t, []string{"version_1", "version_3", "version_10"}, migrations.Keys())
	assert.Equal(t, int64(10), migrations.MaxVersion())
}

func Test_MaxVersionOfEmptySetIsZero(t *testing.T) {
	assert.Equal(t, int64(0), Migrations{}.MaxVersion())
}

func Test_MigrationMustHavePositiveVersion(t *testing.T) {
	_, err := New(0, "broken", nil)
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}
