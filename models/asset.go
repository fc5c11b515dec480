// models/asset.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssetType string

const (
	AssetTypeComputer AssetType = "COMPUTER"
	AssetTypeNotebook AssetType = "NOTEBOOK"
	AssetTypeServer   AssetType = "SERVER"
	AssetTypeMonitor  AssetType = "MONITOR"
	AssetTypeDevice   AssetType = "DEVICE"
	AssetTypeNetwork  AssetType = "NETWORK"
	AssetTypePrinter  AssetType = "PRINTER"
	AssetTypeMobile   AssetType = "MOBILE"
	AssetTypeTablet   AssetType = "TABLET"
	AssetTypeBYOD     AssetType = "BYOD"
	AssetTypeOther    AssetType = "OTHER"
)

type AssetStatus string

const (
	AssetActive    AssetStatus = "ACTIVE"
	AssetStored    AssetStatus = "STORED"
	AssetSpare     AssetStatus = "SPARE"
	AssetRetired   AssetStatus = "RETIRED"
	AssetDiscarded AssetStatus = "DISCARDED"
	AssetLost      AssetStatus = "LOST"
)

var validAssetTypes = map[AssetType]bool{
	AssetTypeComputer: true, AssetTypeNotebook: true, AssetTypeServer: true,
	AssetTypeMonitor: true, AssetTypeDevice: true, AssetTypeNetwork: true,
	AssetTypePrinter: true, AssetTypeMobile: true, AssetTypeTablet: true,
	AssetTypeBYOD: true, AssetTypeOther: true,
}

var validAssetStatuses = map[AssetStatus]bool{
	AssetActive: true, AssetStored: true, AssetSpare: true,
	AssetRetired: true, AssetDiscarded: true, AssetLost: true,
}

// Asset is the protected resource. Visibility is governed by ownership and
// group membership, never by its location; the location reference is purely
// organizational.
type Asset struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	Name              string                `gorm:"size:200" json:"name"`
	AssetType         AssetType             `gorm:"size:20;default:'COMPUTER'" json:"assetType"`
	AssetTag          string                `gorm:"size:100" json:"assetTag"`
	SerialNumber      string                `gorm:"size:120;index" json:"serialNumber"`
	Manufacturer      string                `gorm:"size:120" json:"manufacturer"`
	Model             string                `gorm:"size:120" json:"model"`
	OwnerID           *uint                 `gorm:"index" json:"ownerId,omitempty"`
	Owner             *User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Groups            []OrganizationalGroup `gorm:"many2many:asset_groups" json:"-"`
	LocationID        *uint                 `gorm:"index" json:"locationId,omitempty"`
	Location          *Location             `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Status            AssetStatus           `gorm:"size:20;default:'ACTIVE'" json:"status"`
	Notes             string                `gorm:"type:text" json:"notes"`
	Metadata          datatypes.JSON        `json:"metadata,omitempty"`
	CommissioningDate *time.Time            `json:"commissioningDate,omitempty"`
	LastSeen          *time.Time            `json:"lastSeen,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func (a *Asset) Validate() error {
	if a.AssetType == "" {
		a.AssetType = AssetTypeComputer
	}
	if !validAssetTypes[a.AssetType] {
		return NewValidationError("asset_type", "Invalid asset type.")
	}
	if a.Status == "" {
		a.Status = AssetActive
	}
	if !validAssetStatuses[a.Status] {
		return NewValidationError("status", "Invalid status.")
	}
	return nil
}
