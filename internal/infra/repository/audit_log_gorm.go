package repository

import (
	"context"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	entry.ID = 0
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = repo.DefaultAuditLogLimit
	case limit > repo.MaxAuditLogLimit:
		limit = repo.MaxAuditLogLimit
	}

	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.ResourceType != nil {
		q = q.Where("resource_type = ?", string(*f.ResourceType))
	}
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *f.ActorUserID)
	}

	logs := make([]model.AuditLog, 0, limit)
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
