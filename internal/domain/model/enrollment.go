package model

import "time"

// 受講登録。(user_id, course_id) で1件だけ
type Enrollment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_enrollments_user_course" json:"user_id"`
	CourseID  int64     `gorm:"not null;uniqueIndex:ux_enrollments_user_course" json:"course_id"`
	PaymentID *int64    `gorm:"index" json:"payment_id,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
