package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nefnief-tech/gardes-v2/config"
)

// exerciseStore 各驱动共用的读写删除用例
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "subjects")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "subjects", []byte(`[{"id":"math"}]`)))
	got, err := s.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"math"}]`, string(got))

	// 覆盖写入
	require.NoError(t, s.Set(ctx, "subjects", []byte(`[]`)))
	got, err = s.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "subjects"))
	_, err = s.Get(ctx, "subjects")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "subjects", []byte(`[1]`)))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gardes.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(&config.LocalConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(&config.LocalConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())

	_, err = Open(&config.LocalConfig{Driver: "leveldb"})
	assert.Error(t, err)
}
