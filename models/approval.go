// models/approval.go
package models

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalRevoked  ApprovalStatus = "REVOKED"
)

// NetworkApprovalRequest tracks whether an asset is cleared for network
// access. An APPROVED request is revoked when the asset's interfaces change.
type NetworkApprovalRequest struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AssetID       uint           `gorm:"not null;index" json:"assetId"`
	Asset         *Asset         `gorm:"foreignKey:AssetID" json:"-"`
	Status        ApprovalStatus `gorm:"size:20;default:'PENDING'" json:"status"`
	RequestedByID uint           `gorm:"not null" json:"requestedById"`
	RequestedBy   *User          `gorm:"foreignKey:RequestedByID" json:"requestedBy,omitempty"`
	RequestedAt   time.Time      `gorm:"autoCreateTime" json:"requestedAt"`
	Note          string         `gorm:"type:text" json:"note"`
	ReviewedByID  *uint          `json:"reviewedById,omitempty"`
	ReviewedBy    *User          `gorm:"foreignKey:ReviewedByID" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewedAt,omitempty"`
	ReviewNote    string         `gorm:"type:text" json:"reviewNote"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
