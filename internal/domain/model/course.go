package model

import "time"

// 講座。価格計算時点のスナップショットとして読むだけ
type Course struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string     `gorm:"type:varchar(255);not null" json:"title"`
	NormalPrice    int64      `gorm:"not null" json:"normal_price"`
	EarlyBirdPrice *int64     `json:"early_bird_price,omitempty"`
	EarlyBirdStart *time.Time `json:"early_bird_start,omitempty"`
	EarlyBirdEnd   *time.Time `json:"early_bird_end,omitempty"`
	IsPublished    bool       `gorm:"not null;default:false" json:"is_published"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
