package model

import "time"

type AuditAction string

const (
	AuditActionApprovePayment AuditAction = "APPROVE_PAYMENT"
	AuditActionRejectPayment  AuditAction = "REJECT_PAYMENT"
)

// 操作対象の種類。今は振込スリップの審査だけ
type AuditResourceType string

const (
	AuditResourcePayment AuditResourceType = "payment"
	AuditResourceOrder   AuditResourceType = "order"
)

// 管理者による決済審査の記録。1回の承認/却下で1行
// 書き込みは審査と同じトランザクション内で行う
type AuditLog struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID int64       `gorm:"not null;index" json:"actor_user_id"`
	Action      AuditAction `gorm:"type:varchar(32);not null" json:"action"`

	//対象ごとの履歴を引くので種類とIDで複合インデックス
	ResourceType AuditResourceType `gorm:"type:varchar(32);not null;index:ix_audit_logs_resource,priority:1" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index:ix_audit_logs_resource,priority:2" json:"resource_id"`

	// 変更前後のステータス(JSON)
	BeforeJSON string `gorm:"type:text" json:"before"`
	AfterJSON  string `gorm:"type:text" json:"after"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
