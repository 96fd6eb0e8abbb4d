package userstore

import (
	"time"
)

type UserRecord struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Login        string    `json:"login" gorm:"uniqueIndex;size:255;not null"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Authorized   bool      `json:"authorized" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserRecord) TableName() string {
	return "users"
}
