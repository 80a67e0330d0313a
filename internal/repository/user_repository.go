package repository

import (
	"academy/internal/domain/model"
	"context"
)

// アカウントの読み取りだけ（登録・ログインは外部）
type AccountRepository interface {
	FindByID(ctx context.Context, userID int64) (model.Account, error)
}
