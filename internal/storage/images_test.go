package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		img  Image
		want error
	}{
		{name: "png", img: Image{Filename: "a.png", Size: 10}},
		{name: "upper jpeg", img: Image{Filename: "A.JPEG", Size: 10}},
		{name: "webp at limit", img: Image{Filename: "a.webp", Size: MaxImageSize}},
		{name: "gif", img: Image{Filename: "a.gif", Size: 10}, want: ErrUnsupportedImage},
		{name: "no ext", img: Image{Filename: "image", Size: 10}, want: ErrUnsupportedImage},
		{name: "too large", img: Image{Filename: "a.jpg", Size: MaxImageSize + 1}, want: ErrImageTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, ValidateImage(tt.img), tt.want)
		})
	}
}

func TestLocalImageStore_SaveAndDelete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewLocalImageStore(dir)
	ctx := context.Background()

	url, err := s.Save(ctx, Image{Filename: "Photo.PNG", Size: 4, Body: strings.NewReader("data")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	full := filepath.Join(dir, filepath.Base(url))
	body, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Delete(ctx, url))
	require.NoError(t, s.Delete(ctx, "https://cdn.example.com/x.png"))
	require.NoError(t, s.Delete(ctx, ""))
}

func TestLocalImageStore_RejectsOversizedBody(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewLocalImageStore(dir)

	big := bytes.Repeat([]byte{1}, MaxImageSize+1)
	_, err := s.Save(context.Background(), Image{Filename: "big.jpg", Size: 1, Body: bytes.NewReader(big)})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
