package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"Name"`
	Email     string    `gorm:"size:100;unique;not null" json:"Email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:varchar(20);default:'student'" json:"Role"`
	Language  string    `gorm:"size:10;default:'en'" json:"Language"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	LastLogin time.Time `gorm:"autoCreateTime" json:"LastLogin"`
	LastSeen  time.Time `gorm:"autoCreateTime" json:"LastSeen"`
}

func (User) TableName() string {
	return "users"
}

// FullName 用于 cmi.core.student_name
func (u *User) FullName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
