package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/pkg/qrcode"
)

// PNG magic bytes
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("produces a PNG image", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.Generate("https://classloop.io/join?code=XKCD42", 256)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngHeader))
	})

	t.Run("falls back to default size", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.Generate("ABCD42", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, png)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.Generate("   ", 128)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
	})
}

func TestGenerateDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.GenerateDataURI("XKCD42", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
