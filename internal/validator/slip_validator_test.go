package validator

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"academy/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func assertKind(t *testing.T, err error, kind usecase.Kind) {
	t.Helper()
	require.Error(t, err)
	ue, ok := usecase.AsError(err)
	require.True(t, ok, "expected usecase.Error, got %v", err)
	assert.Equal(t, kind, ue.Kind)
}

func TestSlipValidator_AcceptsPNGAndJPEG(t *testing.T) {
	v := NewSlipValidator(0)

	info, err := v.ValidateSlip(usecase.SlipFile{Bytes: pngBytes(t, 400, 800), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 800, info.Height)

	info, err = v.ValidateSlip(usecase.SlipFile{Bytes: jpegBytes(t, 300, 300), ContentType: "image/jpeg; charset=binary"})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestSlipValidator_Rejects(t *testing.T) {
	v := NewSlipValidator(1024 * 64)

	t.Run("empty", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{ContentType: "image/png"})
		assertKind(t, err, usecase.KindInvalidInput)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: make([]byte, 1024*64+1), ContentType: "image/png"})
		assertKind(t, err, usecase.KindFileTooLarge)
	})

	t.Run("declared type not allowed", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: pngBytes(t, 200, 200), ContentType: "application/pdf"})
		assertKind(t, err, usecase.KindUnsupportedType)
	})

	t.Run("declared jpeg but png content", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: pngBytes(t, 200, 200), ContentType: "image/jpeg"})
		assertKind(t, err, usecase.KindSignatureMismatch)
	})

	t.Run("content is not an image", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: []byte("%PDF-1.7 not an image"), ContentType: "image/png"})
		assertKind(t, err, usecase.KindSignatureMismatch)
	})

	t.Run("truncated header", func(t *testing.T) {
		b := pngBytes(t, 200, 200)[:12]
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: b, ContentType: "image/png"})
		assertKind(t, err, usecase.KindSignatureMismatch)
	})

	t.Run("too small", func(t *testing.T) {
		_, err := v.ValidateSlip(usecase.SlipFile{Bytes: pngBytes(t, 20, 20), ContentType: "image/png"})
		assertKind(t, err, usecase.KindDimensionOutOfRange)
	})
}
