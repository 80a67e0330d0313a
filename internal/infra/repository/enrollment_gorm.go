package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"gorm.io/gorm"
)

type EnrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentGormRepository(db *gorm.DB) *EnrollmentGormRepository {
	return &EnrollmentGormRepository{db: db}
}

func (r *EnrollmentGormRepository) FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.Enrollment, bool, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error

	if isNotFound(err) {
		return model.Enrollment{}, false, nil
	}
	if err != nil {
		return model.Enrollment{}, false, err
	}
	return e, true, nil
}

// 一意制約違反は ErrDuplicate
func (r *EnrollmentGormRepository) Create(ctx context.Context, e model.Enrollment) (model.Enrollment, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Enrollment{}, repo.ErrDuplicate
		}
		return model.Enrollment{}, err
	}
	return e, nil
}

func (r *EnrollmentGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	var items []model.Enrollment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.Enrollment{}, err
	}
	return items, nil
}
