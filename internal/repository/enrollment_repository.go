package repository

import (
	"context"

	"academy/internal/domain/model"
)

type EnrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.Enrollment, bool, error)
	// 既に登録済みなら ErrDuplicate
	Create(ctx context.Context, e model.Enrollment) (model.Enrollment, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error)
}
