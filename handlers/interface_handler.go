// handlers/interface_handler.go
package handlers

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"itin/models"
	"itin/utils"
)

type interfacePayload struct {
	Identifier string  `json:"identifier"`
	MACAddress *string `json:"macAddress"`
	Port       *uint   `json:"port"`
	Active     *bool   `json:"active"`
	Notes      string  `json:"notes"`
}

// CreatePort adds a port to an asset after an edit-permission check.
func CreatePort(w http.ResponseWriter, r *http.Request) {
	assetID, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid asset id")
		return
	}

	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	canEdit, err := canEditAsset(r, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canEdit {
		utils.RespondWithError(w, http.StatusForbidden, "Missing edit permission for this asset")
		return
	}

	var payload struct {
		Name     string          `json:"name"`
		PortKind models.PortKind `json:"portKind"`
		Notes    string          `json:"notes"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil || payload.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Port name is required")
		return
	}
	if payload.PortKind == "" {
		payload.PortKind = models.PortRJ45
	}

	port := models.Port{
		AssetID:  asset.ID,
		Name:     payload.Name,
		PortKind: payload.PortKind,
		Active:   true,
		Notes:    payload.Notes,
	}
	if err := db.Create(&port).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Port name already exists on this asset")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, port)
}

// CreateInterface adds a network interface to an asset.
func CreateInterface(w http.ResponseWriter, r *http.Request) {
	assetID, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid asset id")
		return
	}

	var asset models.Asset
	if err := db.First(&asset, assetID).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	canEdit, err := canEditAsset(r, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canEdit {
		utils.RespondWithError(w, http.StatusForbidden, "Missing edit permission for this asset")
		return
	}

	var payload interfacePayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	iface := models.NetworkInterface{
		AssetID:    asset.ID,
		Identifier: payload.Identifier,
		MACAddress: payload.MACAddress,
		Active:     true,
		Notes:      payload.Notes,
	}
	if payload.Port != nil {
		var port models.Port
		if err := db.First(&port, *payload.Port).Error; err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Port not found")
			return
		}
		iface.PortID = &port.ID
		iface.Port = &port
	}
	if err := iface.Validate(); err != nil {
		respondLocationError(w, err)
		return
	}
	if err := db.Omit("Port", "Asset").Create(&iface).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Interface identifier or MAC already in use")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, iface)
}

// UpdateInterface applies a partial update and revokes the asset's current
// network approval, since the approved state described different hardware.
func UpdateInterface(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid interface id")
		return
	}

	var iface models.NetworkInterface
	if err := db.First(&iface, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Interface not found")
		return
	}

	canEdit, err := canEditInterfaceAsset(r, iface.AssetID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canEdit {
		utils.RespondWithError(w, http.StatusForbidden, "Missing edit permission for this interface")
		return
	}

	var payload interfacePayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.Identifier != "" {
		iface.Identifier = payload.Identifier
	}
	if payload.MACAddress != nil {
		iface.MACAddress = payload.MACAddress
	}
	if payload.Active != nil {
		iface.Active = *payload.Active
	}
	if payload.Notes != "" {
		iface.Notes = payload.Notes
	}
	if payload.Port != nil {
		var port models.Port
		if err := db.First(&port, *payload.Port).Error; err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Port not found")
			return
		}
		iface.PortID = &port.ID
		iface.Port = &port
	}
	if err := iface.Validate(); err != nil {
		respondLocationError(w, err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Port", "Asset").Save(&iface).Error; err != nil {
			return err
		}
		return RevokeCurrentApproval(tx, iface.AssetID)
	})
	if err != nil {
		log.Printf("UpdateInterface: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update interface")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, iface)
}

// RevokeCurrentApproval flips the asset's latest APPROVED network approval
// request to REVOKED. Called whenever an interface changes.
func RevokeCurrentApproval(tx *gorm.DB, assetID uint) error {
	var latest models.NetworkApprovalRequest
	err := tx.Where("asset_id = ? AND status = ?", assetID, models.ApprovalApproved).
		Order("requested_at DESC").First(&latest).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	now := time.Now()
	return tx.Model(&latest).Updates(map[string]interface{}{
		"status":     models.ApprovalRevoked,
		"updated_at": now,
	}).Error
}
