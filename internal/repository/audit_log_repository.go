package repository

import (
	"context"

	"academy/internal/domain/model"
)

const (
	DefaultAuditLogLimit = 50
	MaxAuditLogLimit     = 200
)

// nilの条件は絞り込まない
type AuditLogFilter struct {
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	ActorUserID  *int64
	// 0以下ならDefaultAuditLogLimit
	Limit int
}

type AuditLogRepository interface {
	// 追記のみ。更新・削除は持たない
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
