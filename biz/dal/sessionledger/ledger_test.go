package sessionledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLedger(t *testing.T, content string) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return &Reader{Path: path}
}

func TestReadIndexesFullAndShortID(t *testing.T) {
	fullID := "f8a1b2c3d4e5061728394a5b6c7d8e9f00112233445566778899aabbccddeeff"
	r := writeLedger(t, `[
		{"containerId":"`+fullID+`","lastUsed":1700000000000,"projectId":"p1","userId":"u1"}
	]`)

	m := r.Read()
	require.Len(t, m, 2)

	full, ok := m[fullID]
	require.True(t, ok)
	short, ok := m[fullID[:12]]
	require.True(t, ok)

	assert.Equal(t, full, short)
	assert.Equal(t, int64(1700000000000), full.LastUsedMs)
	assert.Equal(t, "p1", full.ProjectID)
	assert.Equal(t, "u1", full.UserID)
}

func TestReadSkipsRowsWithoutContainerID(t *testing.T) {
	r := writeLedger(t, `[
		{"lastUsed":1700000000000,"projectId":"p1"},
		{"containerId":"abc","lastUsed":42}
	]`)

	m := r.Read()
	require.Len(t, m, 1)
	assert.Equal(t, int64(42), m["abc"].LastUsedMs)
}

func TestReadMissingFileYieldsEmptyMap(t *testing.T) {
	r := &Reader{Path: filepath.Join(t.TempDir(), "nope.json")}
	assert.Empty(t, r.Read())
}

func TestReadMalformedFileYieldsEmptyMap(t *testing.T) {
	r := writeLedger(t, `{"not":"an array"`)
	assert.Empty(t, r.Read())
}
