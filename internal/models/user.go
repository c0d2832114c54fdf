package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Email        string `gorm:"size:100;uniqueIndex;not null"`
	Phone        string `gorm:"size:50"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	// Sleeping members keep their account and running balance but do not
	// take part in order rounds until they wake up again.
	Sleeping  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveMembers scopes a query to members that currently take part in
// order rounds. Sleeping is a predicate, not a separate member type.
func ActiveMembers(db *gorm.DB) *gorm.DB {
	return db.Where("role = ? AND sleeping = false", RoleMember)
}

// TakesPartInRounds reports whether this account may order in the current
// round. A sleeping member keeps their balance and history but sits
// rounds out until they wake up.
func (u *User) TakesPartInRounds() bool {
	return !u.Sleeping
}
