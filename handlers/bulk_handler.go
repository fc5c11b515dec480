// handlers/bulk_handler.go
package handlers

import (
	"net/http"

	"itin/access"
	"itin/models"
	"itin/utils"
)

type bulkRowResult struct {
	Row     int               `json:"row"`
	ID      uint              `json:"id"`
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors"`
}

type bulkAssetRow struct {
	ID uint `json:"id"`
	assetPayload
}

// BulkAssetUpdate applies row-wise partial updates; rows fail independently
// and the response is 207 when any of them did.
func BulkAssetUpdate(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload struct {
		Rows []bulkAssetRow `json:"rows"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil || payload.Rows == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Expected list of rows")
		return
	}

	results := make([]bulkRowResult, 0, len(payload.Rows))
	hasErrors := false
	for index, row := range payload.Rows {
		result := bulkRowResult{Row: index, ID: row.ID, Success: true, Errors: map[string]string{}}

		var asset models.Asset
		err := access.VisibleAssets(db, actor).Where("assets.id = ?", row.ID).First(&asset).Error
		if err != nil {
			result.Success = false
			result.Errors["id"] = "Asset not found or not visible."
			results = append(results, result)
			hasErrors = true
			continue
		}

		canEdit, err := access.CanEditAsset(db, actor, &asset)
		if err != nil || !canEdit {
			result.Success = false
			result.Errors["permission"] = "Missing edit permission for this asset."
			results = append(results, result)
			hasErrors = true
			continue
		}

		if err := applyAssetPayload(&asset, &row.assetPayload, actor); err != nil {
			result.Success = false
			if verr, ok := models.IsValidationError(err); ok {
				result.Errors[verr.Field] = verr.Message
			} else {
				result.Errors["row"] = err.Error()
			}
			results = append(results, result)
			hasErrors = true
			continue
		}
		if err := db.Omit("Groups", "Owner", "Location").Save(&asset).Error; err != nil {
			result.Success = false
			result.Errors["row"] = "Failed to save asset."
			hasErrors = true
		}
		results = append(results, result)
	}

	code := http.StatusOK
	if hasErrors {
		code = http.StatusMultiStatus
	}
	utils.RespondWithJSON(w, code, map[string]interface{}{"results": results})
}

type bulkInterfaceRow struct {
	ID uint `json:"id"`
	interfacePayload
}

// BulkInterfaceUpdate is the interface counterpart of BulkAssetUpdate.
func BulkInterfaceUpdate(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload struct {
		Rows []bulkInterfaceRow `json:"rows"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil || payload.Rows == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Expected list of rows")
		return
	}

	results := make([]bulkRowResult, 0, len(payload.Rows))
	hasErrors := false
	for index, row := range payload.Rows {
		result := bulkRowResult{Row: index, ID: row.ID, Success: true, Errors: map[string]string{}}

		var iface models.NetworkInterface
		if err := db.First(&iface, row.ID).Error; err != nil {
			result.Success = false
			result.Errors["id"] = "Interface not found or not visible."
			results = append(results, result)
			hasErrors = true
			continue
		}

		var asset models.Asset
		err := access.VisibleAssets(db, actor).Where("assets.id = ?", iface.AssetID).First(&asset).Error
		if err != nil {
			result.Success = false
			result.Errors["id"] = "Interface not found or not visible."
			results = append(results, result)
			hasErrors = true
			continue
		}

		canEdit, err := access.CanEditAsset(db, actor, &asset)
		if err != nil || !canEdit {
			result.Success = false
			result.Errors["permission"] = "Missing edit permission for this interface."
			results = append(results, result)
			hasErrors = true
			continue
		}

		if row.Identifier != "" {
			iface.Identifier = row.Identifier
		}
		if row.MACAddress != nil {
			iface.MACAddress = row.MACAddress
		}
		if row.Active != nil {
			iface.Active = *row.Active
		}
		if row.Notes != "" {
			iface.Notes = row.Notes
		}
		if err := iface.Validate(); err != nil {
			result.Success = false
			if verr, ok := models.IsValidationError(err); ok {
				result.Errors[verr.Field] = verr.Message
			} else {
				result.Errors["row"] = err.Error()
			}
			results = append(results, result)
			hasErrors = true
			continue
		}
		if err := db.Omit("Port", "Asset").Save(&iface).Error; err != nil {
			result.Success = false
			result.Errors["row"] = "Failed to save interface."
			hasErrors = true
		}
		results = append(results, result)
	}

	code := http.StatusOK
	if hasErrors {
		code = http.StatusMultiStatus
	}
	utils.RespondWithJSON(w, code, map[string]interface{}{"results": results})
}
