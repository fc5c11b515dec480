// models/group.go
package models

import "time"

// OrganizationalGroup is the unit of access grant: members get read access,
// admins get write access, for both assets and locations tagged with the group.
type OrganizationalGroup struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	DefaultVLANID *uint     `json:"defaultVlanId,omitempty"`
	Members       []User    `gorm:"many2many:group_members" json:"-"`
	Admins        []User    `gorm:"many2many:group_admins" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
