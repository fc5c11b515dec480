// handlers/approval_handler.go
package handlers

import (
	"log"
	"net/http"
	"time"

	"itin/access"
	"itin/models"
	"itin/utils"
)

// CreateApprovalRequest submits an asset for network-access approval. Viewing
// the asset is enough to ask; deciding needs edit rights.
func CreateApprovalRequest(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
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
	canView, err := access.CanViewAsset(db, actor, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canView {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	var payload struct {
		Note string `json:"note"`
	}
	_ = utils.ParseJSON(r, &payload)

	request := models.NetworkApprovalRequest{
		AssetID:       asset.ID,
		Status:        models.ApprovalPending,
		RequestedByID: actor.User.ID,
		Note:          payload.Note,
	}
	if err := db.Create(&request).Error; err != nil {
		log.Printf("CreateApprovalRequest: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create approval request")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, request)
}

// ReviewApprovalRequest approves or rejects a pending request.
func ReviewApprovalRequest(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var request models.NetworkApprovalRequest
	if err := db.First(&request, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Approval request not found")
		return
	}

	var asset models.Asset
	if err := db.First(&asset, request.AssetID).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	canEdit, err := access.CanEditAsset(db, actor, &asset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Permission check failed")
		return
	}
	if !canEdit {
		utils.RespondWithError(w, http.StatusForbidden, "Missing edit permission for this asset")
		return
	}

	var payload struct {
		Decision string `json:"decision"` // approve | reject
		Note     string `json:"note"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if request.Status != models.ApprovalPending {
		utils.RespondWithError(w, http.StatusBadRequest, "Only pending requests can be reviewed")
		return
	}

	switch payload.Decision {
	case "approve":
		request.Status = models.ApprovalApproved
	case "reject":
		request.Status = models.ApprovalRejected
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Decision must be approve or reject")
		return
	}
	now := time.Now()
	request.ReviewedByID = &actor.User.ID
	request.ReviewedAt = &now
	request.ReviewNote = payload.Note

	if err := db.Save(&request).Error; err != nil {
		log.Printf("ReviewApprovalRequest: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save decision")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, request)
}
