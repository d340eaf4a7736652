package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidImageExtension(t *testing.T) {
	assert.True(t, IsValidImageExtension("mug.PNG"))
	assert.True(t, IsValidImageExtension("photo.jpeg"))
	assert.False(t, IsValidImageExtension("script.sh"))
	assert.False(t, IsValidImageExtension("noext"))
}

func TestUniqueFileName(t *testing.T) {
	name := UniqueFileName("../../etc/my mug.PNG")
	assert.True(t, strings.HasPrefix(name, "my_mug_"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "/")
	assert.NotEqual(t, name, UniqueFileName("../../etc/my mug.PNG"))
}

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir, "https://cdn.example.com/")

	url, err := store.Save(context.Background(), "mug.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/uploads/mug_"))

	content, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(content))

	relative := NewLocalStore(dir, "")
	url, err = relative.Save(context.Background(), "hat.webp", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/hat_"))
}

func TestLocalStore_RejectsUnsupportedFiles(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "")

	_, err := store.Save(context.Background(), "payload.exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
