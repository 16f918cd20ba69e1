package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPhoto(t *testing.T) {
	t.Parallel()

	t.Run("no path", func(t *testing.T) {
		t.Parallel()
		att, err := loadPhoto("")
		require.NoError(t, err)
		assert.Nil(t, att)
	})

	t.Run("jpeg from disk", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "leaf.jpg")
		require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o600))

		att, err := loadPhoto(path)
		require.NoError(t, err)
		require.NotNil(t, att)
		assert.Equal(t, "image/jpeg", att.MIMEType)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := loadPhoto(filepath.Join(t.TempDir(), "nope.jpg"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading photo")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "leaf.gif")
		require.NoError(t, os.WriteFile(path, []byte("gif"), 0o600))

		_, err := loadPhoto(path)
		require.Error(t, err)
	})
}

func TestAskCommandWiring(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, askCmd.Flags().Lookup("photo"))
	require.NotNil(t, askCmd.Args)
	assert.Error(t, askCmd.Args(askCmd, nil), "a question is required")
	assert.NoError(t, askCmd.Args(askCmd, []string{"why", "are", "the", "leaves", "yellow"}))
}
