// models/guest_device.go
package models

import "time"

type GuestApprovalStatus string

const (
	GuestPending  GuestApprovalStatus = "PENDING"
	GuestApproved GuestApprovalStatus = "APPROVED"
	GuestRejected GuestApprovalStatus = "REJECTED"
	GuestDisabled GuestApprovalStatus = "DISABLED"
)

// GuestDevice is a guest Wi-Fi registration. Self-registered devices start
// PENDING and need a decision from the sponsoring user (or a superuser).
type GuestDevice struct {
	ID             uint                  `gorm:"primaryKey" json:"id"`
	DeviceName     string                `gorm:"size:200" json:"deviceName"`
	OwnerName      string                `gorm:"size:200" json:"ownerName"`
	OwnerEmail     string                `gorm:"size:254" json:"ownerEmail"`
	Description    string                `gorm:"type:text" json:"description"`
	NetworkID      *uint                 `gorm:"index" json:"networkId,omitempty"`
	Network        *Network              `gorm:"foreignKey:NetworkID" json:"network,omitempty"`
	SponsorID      uint                  `gorm:"not null;index" json:"sponsorId"`
	Sponsor        *User                 `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Groups         []OrganizationalGroup `gorm:"many2many:guest_device_groups" json:"-"`
	MACAddress     string                `gorm:"size:17;not null" json:"macAddress"`
	ValidFrom      time.Time             `json:"validFrom"`
	ValidUntil     time.Time             `json:"validUntil"`
	ApprovalStatus GuestApprovalStatus   `gorm:"size:20;default:'PENDING'" json:"approvalStatus"`
	ApprovedByID   *uint                 `json:"approvedById,omitempty"`
	ApprovedBy     *User                 `gorm:"foreignKey:ApprovedByID" json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time            `json:"approvedAt,omitempty"`
	RejectedReason string                `gorm:"type:text" json:"rejectedReason"`
	Enabled        bool                  `gorm:"default:false" json:"enabled"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func (g *GuestDevice) Validate() error {
	if err := ValidateMAC(g.MACAddress); err != nil {
		return err
	}
	g.MACAddress = NormalizeMAC(g.MACAddress)
	if !g.ValidUntil.After(g.ValidFrom) {
		return NewValidationError("valid_until", "valid_until must be later than valid_from.")
	}
	return nil
}

// IsCurrentlyActive reports whether the device is approved, enabled and inside
// its validity window at the given instant.
func (g *GuestDevice) IsCurrentlyActive(now time.Time) bool {
	return g.ApprovalStatus == GuestApproved &&
		g.Enabled &&
		!now.Before(g.ValidFrom) &&
		now.Before(g.ValidUntil)
}
