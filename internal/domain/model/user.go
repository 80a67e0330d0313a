package model

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 外部のアカウントストアの読み取り用ビュー
type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'"`
	TokenVersion int    `gorm:"not null;default:0"`
	Locale       string `gorm:"type:varchar(10);not null;default:'th'"`
	IsActive     bool   `gorm:"not null;default:true"`
}

func (Account) TableName() string {
	return "users"
}
