package model

import "time"

// カートの明細。同じカートに同じ講座は1行だけ（DBの一意制約で担保）
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_course" json:"cart_id"`
	CourseID  int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_course;index" json:"course_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
