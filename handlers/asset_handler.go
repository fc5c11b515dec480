// handlers/asset_handler.go
package handlers

import (
	"log"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"itin/access"
	"itin/models"
	"itin/utils"
)

type assetPayload struct {
	Name              string             `json:"name"`
	AssetType         models.AssetType   `json:"assetType"`
	AssetTag          string             `json:"assetTag"`
	SerialNumber      string             `json:"serialNumber"`
	Manufacturer      string             `json:"manufacturer"`
	Model             string             `json:"model"`
	Owner             *uint              `json:"owner"`
	Groups            *[]uint            `json:"groups"`
	Location          *uint              `json:"location"`
	Status            models.AssetStatus `json:"status"`
	Notes             string             `json:"notes"`
	Metadata          datatypes.JSON     `json:"metadata"`
	CommissioningDate *time.Time         `json:"commissioningDate"`
}

// ListAssets returns assets visible to the caller, with the usual filters.
func ListAssets(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := access.VisibleAssets(db, actor)
	params := r.URL.Query()
	if q := params.Get("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR asset_tag LIKE ? OR serial_number LIKE ?", like, like, like)
	}
	if status := params.Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if owner := params.Get("owner"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if location := params.Get("location"); location != "" {
		query = query.Where("location_id = ?", location)
	}
	if assetType := params.Get("type"); assetType != "" {
		query = query.Where("asset_type = ?", assetType)
	}
	if group := params.Get("group"); group != "" {
		sub := db.Table("asset_groups").Select("asset_id").Where("organizational_group_id = ?", group)
		query = query.Where("assets.id IN (?)", sub)
	}

	var assets []models.Asset
	if err := query.Preload("Owner").Preload("Location").Order("name").Find(&assets).Error; err != nil {
		log.Printf("ListAssets: query failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	utils.RespondWithJSON(w, http.StatusOK, assets)
}

// GetAsset returns one asset after a view-permission check.
func GetAsset(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid asset id")
		return
	}

	var asset models.Asset
	if err := db.Preload("Owner").Preload("Location").Preload("Groups").First(&asset, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	canView, err := access.CanViewAsset(db, actor, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canView {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	canEdit, err := access.CanEditAsset(db, actor, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}

	var interfaces []models.NetworkInterface
	if err := db.Where("asset_id = ?", asset.ID).Order("identifier").Find(&interfaces).Error; err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"asset":      asset,
		"groups":     asset.Groups,
		"interfaces": interfaces,
		"editable":   canEdit,
	})
}

// CreateAsset creates an asset owned by the caller (unless another owner is
// given) and then provisions default connectivity for computers.
func CreateAsset(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload assetPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	groupIDs := []uint{}
	if payload.Groups != nil {
		groupIDs = *payload.Groups
	}
	if !actor.IsSuperuser() {
		adminIDs := actor.AdminGroupIDs()
		for _, id := range groupIDs {
			if !adminIDs.Has(id) {
				utils.RespondWithError(w, http.StatusForbidden, "Group assignment is outside your managed groups")
				return
			}
		}
	}

	ownerID := actor.User.ID
	if payload.Owner != nil {
		ownerID = *payload.Owner
	}

	asset := models.Asset{
		Name:              payload.Name,
		AssetType:         payload.AssetType,
		AssetTag:          payload.AssetTag,
		SerialNumber:      payload.SerialNumber,
		Manufacturer:      payload.Manufacturer,
		Model:             payload.Model,
		OwnerID:           &ownerID,
		LocationID:        payload.Location,
		Status:            payload.Status,
		Notes:             payload.Notes,
		Metadata:          payload.Metadata,
		CommissioningDate: payload.CommissioningDate,
	}
	if err := asset.Validate(); err != nil {
		respondLocationError(w, err)
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Groups", "Owner", "Location").Create(&asset).Error; err != nil {
			return err
		}
		if len(groupIDs) > 0 {
			var groups []models.OrganizationalGroup
			if err := tx.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
				return err
			}
			if err := tx.Model(&asset).Association("Groups").Replace(groups); err != nil {
				return err
			}
		}
		// Post-creation hook, invoked explicitly so it shows up in the call
		// graph instead of hiding behind an event subscription.
		return EnsureDefaultConnectivity(tx, &asset)
	})
	if err != nil {
		log.Printf("CreateAsset: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create asset")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, asset)
}

// UpdateAsset applies a partial update after an edit-permission check.
func UpdateAsset(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid asset id")
		return
	}

	var asset models.Asset
	if err := db.First(&asset, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	canEdit, err := access.CanEditAsset(db, actor, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canEdit {
		utils.RespondWithError(w, http.StatusForbidden, "You do not have permission to edit this asset")
		return
	}

	var payload assetPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := applyAssetPayload(&asset, &payload, actor); err != nil {
		respondLocationError(w, err)
		return
	}

	// authorize the group assignment before persisting anything, so a
	// rejected request leaves the asset untouched
	if payload.Groups != nil && !actor.IsSuperuser() {
		adminIDs := actor.AdminGroupIDs()
		for _, groupID := range *payload.Groups {
			if !adminIDs.Has(groupID) {
				utils.RespondWithError(w, http.StatusForbidden, "Group assignment is outside your managed groups")
				return
			}
		}
	}

	if err := db.Omit("Groups", "Owner", "Location").Save(&asset).Error; err != nil {
		log.Printf("UpdateAsset: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update asset")
		return
	}
	if payload.Groups != nil {
		var groups []models.OrganizationalGroup
		if len(*payload.Groups) > 0 {
			if err := db.Where("id IN ?", *payload.Groups).Find(&groups).Error; err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update groups")
				return
			}
		}
		if err := db.Model(&asset).Association("Groups").Replace(groups); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update groups")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, asset)
}

func applyAssetPayload(asset *models.Asset, payload *assetPayload, actor *access.Actor) error {
	if payload.Name != "" {
		asset.Name = payload.Name
	}
	if payload.AssetType != "" {
		asset.AssetType = payload.AssetType
	}
	if payload.AssetTag != "" {
		asset.AssetTag = payload.AssetTag
	}
	if payload.SerialNumber != "" {
		asset.SerialNumber = payload.SerialNumber
	}
	if payload.Manufacturer != "" {
		asset.Manufacturer = payload.Manufacturer
	}
	if payload.Model != "" {
		asset.Model = payload.Model
	}
	if payload.Owner != nil {
		asset.OwnerID = payload.Owner
	}
	if payload.Location != nil {
		asset.LocationID = payload.Location
	}
	if payload.Status != "" {
		asset.Status = payload.Status
	}
	if payload.Notes != "" {
		asset.Notes = payload.Notes
	}
	if payload.Metadata != nil {
		asset.Metadata = payload.Metadata
	}
	if payload.CommissioningDate != nil {
		asset.CommissioningDate = payload.CommissioningDate
	}
	return asset.Validate()
}

// EnsureDefaultConnectivity provisions the default "LAN" port and "lan"
// interface for newly created computers. Idempotent.
func EnsureDefaultConnectivity(tx *gorm.DB, asset *models.Asset) error {
	if asset.AssetType != models.AssetTypeComputer {
		return nil
	}

	var port models.Port
	err := tx.Where("asset_id = ? AND name = ?", asset.ID, "LAN").First(&port).Error
	if err == gorm.ErrRecordNotFound {
		port = models.Port{AssetID: asset.ID, Name: "LAN", PortKind: models.PortRJ45, Active: true}
		err = tx.Create(&port).Error
	}
	if err != nil {
		return err
	}
	if !port.Active {
		if err := tx.Model(&port).Update("active", true).Error; err != nil {
			return err
		}
	}

	var iface models.NetworkInterface
	err = tx.Where("asset_id = ? AND identifier = ?", asset.ID, "lan").First(&iface).Error
	if err == gorm.ErrRecordNotFound {
		iface = models.NetworkInterface{AssetID: asset.ID, Identifier: "lan", PortID: &port.ID, Active: true}
		return tx.Create(&iface).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if !iface.Active {
		updates["active"] = true
	}
	if iface.PortID == nil {
		updates["port_id"] = port.ID
	}
	if len(updates) > 0 {
		return tx.Model(&iface).Updates(updates).Error
	}
	return nil
}
