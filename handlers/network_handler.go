// handlers/network_handler.go
package handlers

import (
	"errors"
	"log"
	"net"
	"net/http"

	"gorm.io/gorm"

	"itin/models"
	"itin/utils"
)

// ListNetworks is a lookup for network pickers.
func ListNetworks(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var networks []models.Network
	if err := db.Order("name").Find(&networks).Error; err != nil {
		log.Printf("ListNetworks: query failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if networks == nil {
		networks = []models.Network{}
	}
	utils.RespondWithJSON(w, http.StatusOK, networks)
}

// CreateNetwork creates a network. Staff only.
func CreateNetwork(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}

	var network models.Network
	if err := utils.ParseJSON(r, &network); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	network.ID = 0
	if err := network.Validate(); err != nil {
		respondLocationError(w, err)
		return
	}
	if err := db.Create(&network).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Network name already exists")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, network)
}

// CreateIPAddress allocates an address on a network for an interface.
func CreateIPAddress(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload struct {
		Network           uint            `json:"network"`
		Address           string          `json:"address"`
		Status            models.IPStatus `json:"status"`
		AssignedInterface *uint           `json:"assignedInterface"`
		Hostname          string          `json:"hostname"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	var network models.Network
	if err := db.First(&network, payload.Network).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Network not found")
		return
	}

	ip := models.IPAddress{
		NetworkID:           network.ID,
		Address:             payload.Address,
		Status:              payload.Status,
		AssignedInterfaceID: payload.AssignedInterface,
		Hostname:            payload.Hostname,
		Active:              true,
	}
	if ip.Status == "" {
		ip.Status = models.IPStatic
	}

	if err := validateIPAddress(db, &network, &ip); err != nil {
		respondLocationError(w, err)
		return
	}

	if ip.AssignedInterfaceID != nil {
		var iface models.NetworkInterface
		if err := db.Preload("Asset").First(&iface, *ip.AssignedInterfaceID).Error; err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Interface not found")
			return
		}
		canEdit, err := canEditInterfaceAsset(r, iface.AssetID)
		if err != nil || !canEdit {
			utils.RespondWithError(w, http.StatusForbidden, "Missing edit permission for this interface")
			return
		}
		if ip.Hostname == "" && iface.Asset != nil {
			ip.Hostname = iface.Asset.Name
		}
	}

	if err := db.Create(&ip).Error; err != nil {
		log.Printf("CreateIPAddress: %v", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Address already allocated on this network")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, ip)
}

// validateIPAddress enforces membership in the network CIDR and the
// one-active-IP-per-interface-per-network rule.
func validateIPAddress(tx *gorm.DB, network *models.Network, ip *models.IPAddress) error {
	_, ipNet, err := net.ParseCIDR(network.CIDR)
	if err != nil {
		return models.NewValidationError("network", "Network CIDR is invalid.")
	}
	parsed := net.ParseIP(ip.Address)
	if parsed == nil || parsed.To4() == nil {
		return models.NewValidationError("address", "Invalid IPv4 address.")
	}
	if !ipNet.Contains(parsed) {
		return models.NewValidationError("address", "IP address must be inside selected network CIDR.")
	}

	if ip.AssignedInterfaceID != nil && ip.Active {
		query := tx.Model(&models.IPAddress{}).Where(
			"network_id = ? AND assigned_interface_id = ? AND active = ?",
			network.ID, *ip.AssignedInterfaceID, true,
		)
		if ip.ID != 0 {
			query = query.Where("id <> ?", ip.ID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewValidationError(
				"assigned_interface",
				"Only one active IP per interface in the same network is allowed.",
			)
		}
	}
	return nil
}

func canEditInterfaceAsset(r *http.Request, assetID uint) (bool, error) {
	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return canEditAsset(r, &asset)
}
