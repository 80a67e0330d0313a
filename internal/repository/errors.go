package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 一意制約違反（カート明細・受講登録の重複など）
var ErrDuplicate = errors.New("duplicate")
