// models/network.go
package models

import (
	"fmt"
	"net"
	"time"
)

type Network struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	VLANID      *uint     `json:"vlanId,omitempty"`
	CIDR        string    `gorm:"size:43;not null" json:"cidr"`
	Gateway     string    `gorm:"size:15" json:"gateway,omitempty"`
	DHCPEnabled bool      `gorm:"default:true" json:"dhcpEnabled"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate normalizes the CIDR and checks that the gateway, when set, lies
// inside the network.
func (n *Network) Validate() error {
	_, ipNet, err := net.ParseCIDR(n.CIDR)
	if err != nil || ipNet.IP.To4() == nil {
		return NewValidationError("cidr", "Invalid IPv4 CIDR.")
	}
	n.CIDR = ipNet.String()

	if n.Gateway != "" {
		gateway := net.ParseIP(n.Gateway)
		if gateway == nil || gateway.To4() == nil {
			return NewValidationError("gateway", "Invalid IPv4 address.")
		}
		if !ipNet.Contains(gateway) {
			return NewValidationError("gateway", "Gateway must be inside the network CIDR.")
		}
	}
	return nil
}

func (n *Network) String() string {
	return fmt.Sprintf("%s (%s)", n.Name, n.CIDR)
}

type IPStatus string

const (
	IPStatic       IPStatus = "STATIC"
	IPDHCPReserved IPStatus = "DHCP_RESERVED"
	IPDHCPDynamic  IPStatus = "DHCP_DYNAMIC"
	IPDeprecated   IPStatus = "DEPRECATED"
)

type IPAddress struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	NetworkID           uint              `gorm:"not null;uniqueIndex:uniq_network_ip_address" json:"networkId"`
	Network             *Network          `gorm:"foreignKey:NetworkID" json:"network,omitempty"`
	Address             string            `gorm:"size:15;not null;uniqueIndex:uniq_network_ip_address" json:"address"`
	Status              IPStatus          `gorm:"size:20;default:'STATIC'" json:"status"`
	AssignedInterfaceID *uint             `gorm:"index" json:"assignedInterfaceId,omitempty"`
	AssignedInterface   *NetworkInterface `gorm:"foreignKey:AssignedInterfaceID" json:"-"`
	Hostname            string            `gorm:"size:200" json:"hostname"`
	Active              bool              `gorm:"default:true" json:"active"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}
