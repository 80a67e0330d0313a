package repository

import (
	"academy/internal/domain/model"
	"context"
)

// 講座カタログの参照だけを約束。
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)
	// 見つかったものだけ返す（欠けているIDは呼び出し側で判定）
	FindByIDs(ctx context.Context, ids []int64) ([]model.Course, error)
}
