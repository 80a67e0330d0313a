package repository

import (
	"context"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"gorm.io/gorm"
)

type CourseGormRepository struct {
	db *gorm.DB
}

// DI
func NewCourseGormRepository(db *gorm.DB) *CourseGormRepository {
	return &CourseGormRepository{db: db}
}

// IDで講座を取得
func (r *CourseGormRepository) FindByID(ctx context.Context, id int64) (model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).First(&c, id).Error
	if isNotFound(err) {
		return model.Course{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// まとめて取得。見つからないIDは単に含まれない
func (r *CourseGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}

	var courses []model.Course
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&courses).Error; err != nil {
		return []model.Course{}, err
	}
	return courses, nil
}
