package database

import (
	"testing"

	"github.com/perdixsw/jambi/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMigrations(t *testing.T, versions ...int64) migration.Migrations {
	t.Helper()

	var result migration.Migrations
	for _, v := range versions {
		m, err := migration.New(v, "", nil)
		require.NoError(t, err)
		result = append(result, m)
	}
	return result
}

func Test_ComputeBatch(t *testing.T) {
	all := makeMigrations(t, 1, 3, 5, 10)

	t.Run("from zero to latest takes everything", func(t *testing.T) {
		batch := ComputeBatch(all, 0, 10)
		assert.Equal(t, []string{"version_1", "version_3", "version_5", "version_10"}, batch.Keys())
	})

	t.Run("already applied migrations are excluded", func(t *testing.T) {
		batch := ComputeBatch(all, 3, 10)
		assert.Equal(t, []string{"version_5", "version_10"}, batch.Keys())
	})

	t.Run("bounded target excludes later migrations", func(t *testing.T) {
		batch := ComputeBatch(all, 1, 5)
		assert.Equal(t, []string{"version_3", "version_5"}, batch.Keys())
	})

	t.Run("target equal to current yields empty batch", func(t *testing.T) {
		assert.Empty(t, ComputeBatch(all, 5, 5))
	})

	t.Run("target below current yields empty batch", func(t *testing.T) {
		assert.Empty(t, ComputeBatch(all, 10, 5))
	})

	t.Run("duplicate versions keep their discovery order", func(t *testing.T) {
		first, err := migration.New(3, "first", nil)
		require.NoError(t, err)
		second, err := migration.New(3, "second", nil)
		require.NoError(t, err)

		batch := ComputeBatch(migration.Migrations{first, second}, 0, 3)
		require.Len(t, batch, 2)
		assert.Equal(t, "first", batch[0].Name)
		assert.Equal(t, "second", batch[1].Name)
	})
}

func Test_TargetResolution(t *testing.T) {
	assert.Equal(t, int64(42), LatestTarget().Resolve(42))
	assert.Equal(t, int64(7), VersionTarget(7).Resolve(42))
	assert.True(t, LatestTarget().IsLatest())
	assert.False(t, VersionTarget(7).IsLatest())
}
