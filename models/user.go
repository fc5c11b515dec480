// models/user.go
package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string         `gorm:"size:150" json:"firstName"`
	LastName     string         `gorm:"size:150" json:"lastName"`
	PasswordHash string         `gorm:"size:128" json:"-"`
	IsActive     bool           `gorm:"default:true" json:"isActive"`
	IsStaff      bool           `gorm:"default:false" json:"isStaff"`
	IsSuperuser  bool           `gorm:"default:false" json:"isSuperuser"`
	LastLogin    *time.Time     `json:"lastLogin,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail applies the identity rule: email is the username, always
// stored trimmed and lowercased.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", NewValidationError("email", "Email is required.")
	}
	return email, nil
}
