package model

import "time"

// 注文明細。UnitPrice は注文作成時点の実売価格で固定
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;uniqueIndex:ux_order_items_order_course" json:"order_id"`
	CourseID            int64     `gorm:"not null;uniqueIndex:ux_order_items_order_course;index" json:"course_id"`
	CourseTitleSnapshot string    `gorm:"type:varchar(255);not null" json:"course_title_snapshot"`
	UnitPrice           int64     `gorm:"not null" json:"unit_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
