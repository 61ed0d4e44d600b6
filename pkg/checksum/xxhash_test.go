package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileChecksum(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	other := filepath.Join(dir, "c.csv")
	require.NoError(t, os.WriteFile(first, []byte("Carrier;Plate\nACME;1\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("Carrier;Plate\nACME;1\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("Carrier;Plate\nACME;2\n"), 0o644))

	t.Run("should match for identical content", func(t *testing.T) {
		a, err := GetFileChecksum(first)
		require.NoError(t, err)
		b, err := GetFileChecksum(second)
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 16)
	})

	t.Run("should differ for different content", func(t *testing.T) {
		a, _ := GetFileChecksum(first)
		c, _ := GetFileChecksum(other)
		assert.NotEqual(t, a, c)
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		_, err := GetFileChecksum(filepath.Join(dir, "missing.csv"))
		assert.Error(t, err)
	})
}

func TestCalculateHash(t *testing.T) {
	assert.Equal(t, CalculateHash([]string{"a", "b"}), CalculateHash([]string{"a", "b"}))
	assert.NotEqual(t, CalculateHash([]string{"a", "b"}), CalculateHash([]string{"b", "a"}))
	assert.Len(t, CalculateHash(nil), 16)
}
