package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDiskStoreSaveAndResolve(t *testing.T) {
	t.Parallel()

	store := NewDiskStore(t.TempDir(), 1)
	ctx := context.Background()

	content := tinyPNG(t, 800, 600)
	stored, err := store.Save(ctx, "beach.png", "image/png", content)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Hash)
	assert.Equal(t, "image/jpeg", stored.MimeType)
	assert.Equal(t, 800, stored.Width)
	assert.Equal(t, 600, stored.Height)

	for _, name := range []string{"master.jpg", "preview.webp"} {
		full, err := store.Resolve(stored.Hash, name)
		require.NoError(t, err)
		_, statErr := os.Stat(full)
		require.NoError(t, statErr)
	}

	// Same bytes hash to the same address.
	again, err := store.Save(ctx, "beach-copy.png", "image/png", content)
	require.NoError(t, err)
	assert.Equal(t, stored.Hash, again.Hash)

	assert.Equal(t, "/media/f/"+stored.Hash+"/preview.webp", store.PreviewURL(stored.Hash))
	assert.Equal(t, "/media/f/"+stored.Hash+"/master.jpg", store.OriginalURL(stored.Hash))
}

func TestDiskStoreSaveDownscalesLargeImages(t *testing.T) {
	t.Parallel()

	store := NewDiskStore(t.TempDir(), 10)
	content := tinyPNG(t, 3000, 1500)

	stored, err := store.Save(context.Background(), "pano.png", "image/png", content)
	require.NoError(t, err)
	assert.Equal(t, 2048, stored.Width)
	assert.Equal(t, 1024, stored.Height)
}

func TestDiskStoreSaveRejections(t *testing.T) {
	t.Parallel()

	store := NewDiskStore(t.TempDir(), 1)
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
	}{
		{name: "empty upload", filename: "x.png", contentType: "image/png", content: nil},
		{name: "not an image", filename: "x.txt", contentType: "text/plain", content: []byte("hello world")},
		{name: "corrupt image bytes", filename: "x.png", contentType: "image/png", content: append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)},
		{name: "mismatched declared type", filename: "x.gif", contentType: "image/gif", content: tinyPNG(t, 10, 10)},
		{name: "over size cap", filename: "big.png", contentType: "image/png", content: append(tinyPNG(t, 10, 10), make([]byte, 2<<20)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.filename, tt.contentType, tt.content)
			require.Error(t, err)
		})
	}
}

func TestDiskStoreDelete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewDiskStore(dir, 1)
	ctx := context.Background()

	stored, err := store.Save(ctx, "gone.png", "image/png", tinyPNG(t, 100, 100))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, stored.Hash))
	_, statErr := os.Stat(filepath.Join(dir, stored.Hash))
	assert.True(t, os.IsNotExist(statErr))

	// Absent hash deletes cleanly.
	require.NoError(t, store.Delete(ctx, stored.Hash))
}

func TestDiskStoreResolveRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := NewDiskStore(t.TempDir(), 1)

	_, err := store.Resolve("../../etc", "master.jpg")
	require.Error(t, err)

	_, err = store.Resolve("ABCDEF", "master.jpg")
	require.Error(t, err, "uppercase hex is not a valid hash")

	stored, err := store.Save(context.Background(), "p.png", "image/png", tinyPNG(t, 20, 20))
	require.NoError(t, err)
	_, err = store.Resolve(stored.Hash, "../store.go")
	require.Error(t, err)
}
