// models/interface.go
package models

import "time"

type PortKind string

const (
	PortRJ45    PortKind = "RJ45"
	PortSFP     PortKind = "SFP"
	PortWiFi    PortKind = "WIFI"
	PortVirtual PortKind = "VIRTUAL"
	PortOther   PortKind = "OTHER"
)

type Port struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"not null;uniqueIndex:uniq_asset_port_name" json:"assetId"`
	Asset     *Asset    `gorm:"foreignKey:AssetID" json:"-"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:uniq_asset_port_name" json:"name"`
	PortKind  PortKind  `gorm:"size:20;default:'RJ45'" json:"portKind"`
	Active    bool      `gorm:"default:true" json:"active"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NetworkInterface struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AssetID    uint      `gorm:"not null;uniqueIndex:uniq_asset_interface_identifier" json:"assetId"`
	Asset      *Asset    `gorm:"foreignKey:AssetID" json:"-"`
	PortID     *uint     `gorm:"index" json:"portId,omitempty"`
	Port       *Port     `gorm:"foreignKey:PortID" json:"-"`
	Identifier string    `gorm:"size:120;not null;uniqueIndex:uniq_asset_interface_identifier" json:"identifier"`
	MACAddress *string   `gorm:"size:17;uniqueIndex" json:"macAddress,omitempty"`
	Active     bool      `gorm:"default:true" json:"active"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate normalizes the MAC and enforces that an attached port belongs to
// the same asset.
func (i *NetworkInterface) Validate() error {
	if i.Identifier == "" {
		return NewValidationError("identifier", "Identifier is required.")
	}
	if i.MACAddress != nil && *i.MACAddress != "" {
		if err := ValidateMAC(*i.MACAddress); err != nil {
			return err
		}
		normalized := NormalizeMAC(*i.MACAddress)
		i.MACAddress = &normalized
	}
	if i.Port != nil && i.Port.AssetID != i.AssetID {
		return NewValidationError("port", "Interface port must belong to the same asset.")
	}
	return nil
}
