// Package storage は振込明細画像などのバイナリを保存する。
package storage

import "errors"

var ErrObjectNotFound = errors.New("object not found")

// Object はアップロード対象
type Object struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Stored は保存後の参照先
type Stored struct {
	URL  string
	Path string
}
