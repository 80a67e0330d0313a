package validator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"academy/internal/usecase"
)

const (
	DefaultSlipMaxBytes = 5 << 20

	// 明細画像として現実的なサイズ
	minSlipSide = 100
	maxSlipSide = 10000
)

var allowedSlipTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/jpg":  "jpeg",
	"image/png":  "png",
}

type slipValidator struct {
	maxBytes int64
}

func NewSlipValidator(maxBytes int64) usecase.SlipValidator {
	if maxBytes <= 0 {
		maxBytes = DefaultSlipMaxBytes
	}
	return &slipValidator{maxBytes: maxBytes}
}

// アップロードされた振込明細を検証（ストレージに書く前に呼ぶ）
func (v *slipValidator) ValidateSlip(f usecase.SlipFile) (usecase.SlipInfo, error) {
	size := int64(len(f.Bytes))
	if size == 0 {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindInvalidInput, "slip file is empty")
	}
	if size > v.maxBytes {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindFileTooLarge,
			fmt.Sprintf("slip must be at most %d bytes", v.maxBytes))
	}

	declared := normalizeMime(f.ContentType)
	want, ok := allowedSlipTypes[declared]
	if !ok {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindUnsupportedType, "slip must be a jpeg or png image")
	}

	// 中身の先頭バイトから判定
	detected := normalizeMime(http.DetectContentType(f.Bytes))
	got, ok := allowedSlipTypes[detected]
	if !ok {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindSignatureMismatch, "file content is not a jpeg or png image")
	}
	if got != want {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindSignatureMismatch,
			fmt.Sprintf("declared %s but content is %s", declared, detected))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Bytes))
	if err != nil || format != got {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindSignatureMismatch, "image header is corrupt")
	}
	if cfg.Width < minSlipSide || cfg.Height < minSlipSide || cfg.Width > maxSlipSide || cfg.Height > maxSlipSide {
		return usecase.SlipInfo{}, usecase.NewError(usecase.KindDimensionOutOfRange,
			fmt.Sprintf("image must be between %d and %d pixels per side", minSlipSide, maxSlipSide))
	}

	return usecase.SlipInfo{
		ContentType: detected,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        size,
	}, nil
}

func normalizeMime(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
