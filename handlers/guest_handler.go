// handlers/guest_handler.go
package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"itin/models"
	"itin/utils"
	"itin/websocket"
)

// RegisterGuestDevice is the public self-registration endpoint. The request
// lands in PENDING state and waits for the sponsor's decision.
func RegisterGuestDevice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DeviceName   string     `json:"deviceName"`
		OwnerName    string     `json:"ownerName"`
		OwnerEmail   string     `json:"ownerEmail"`
		Description  string     `json:"description"`
		Network      *uint      `json:"network"`
		SponsorEmail string     `json:"sponsorEmail"`
		MACAddress   string     `json:"macAddress"`
		ValidFrom    *time.Time `json:"validFrom"`
		ValidUntil   time.Time  `json:"validUntil"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	sponsorEmail := strings.ToLower(strings.TrimSpace(payload.SponsorEmail))
	if sponsorEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Sponsor email is required")
		return
	}
	var sponsor models.User
	if err := db.Where("email = ? AND is_active = ?", sponsorEmail, true).First(&sponsor).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Sponsor not found")
		return
	}

	guest := models.GuestDevice{
		DeviceName:     payload.DeviceName,
		OwnerName:      payload.OwnerName,
		OwnerEmail:     payload.OwnerEmail,
		Description:    payload.Description,
		NetworkID:      payload.Network,
		SponsorID:      sponsor.ID,
		MACAddress:     payload.MACAddress,
		ValidUntil:     payload.ValidUntil,
		ApprovalStatus: models.GuestPending,
		Enabled:        false,
	}
	guest.ValidFrom = time.Now()
	if payload.ValidFrom != nil {
		guest.ValidFrom = *payload.ValidFrom
	}
	if err := guest.Validate(); err != nil {
		respondLocationError(w, err)
		return
	}

	if err := db.Create(&guest).Error; err != nil {
		log.Printf("RegisterGuestDevice: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	websocket.SendGuestRegistered(&guest)
	utils.RespondWithJSON(w, http.StatusCreated, guest)
}

// ListPendingGuests lists pending requests sponsored by the caller; superusers
// see every pending request.
func ListPendingGuests(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := db.Preload("Sponsor").Preload("Network").
		Where("approval_status = ?", models.GuestPending)
	if !actor.IsSuperuser() {
		query = query.Where("sponsor_id = ?", actor.User.ID)
	}

	var guests []models.GuestDevice
	if err := query.Order("created_at DESC").Find(&guests).Error; err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if guests == nil {
		guests = []models.GuestDevice{}
	}
	utils.RespondWithJSON(w, http.StatusOK, guests)
}

// ApproveGuest approves a pending request. Sponsor or superuser only.
func ApproveGuest(w http.ResponseWriter, r *http.Request) {
	decideGuest(w, r, true)
}

// RejectGuest rejects a pending request. Sponsor or superuser only.
func RejectGuest(w http.ResponseWriter, r *http.Request) {
	decideGuest(w, r, false)
}

func decideGuest(w http.ResponseWriter, r *http.Request, approve bool) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid guest device id")
		return
	}

	var guest models.GuestDevice
	if err := db.First(&guest, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Guest device not found")
		return
	}
	if !actor.IsSuperuser() && guest.SponsorID != actor.User.ID {
		utils.RespondWithError(w, http.StatusForbidden, "Missing permission to decide this guest request")
		return
	}
	if guest.ApprovalStatus != models.GuestPending {
		utils.RespondWithError(w, http.StatusBadRequest, "Only pending requests can be decided")
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	_ = utils.ParseJSON(r, &payload)

	now := time.Now()
	if approve {
		guest.ApprovalStatus = models.GuestApproved
		guest.Enabled = true
		guest.ApprovedByID = &actor.User.ID
		guest.ApprovedAt = &now
		guest.RejectedReason = ""
	} else {
		guest.ApprovalStatus = models.GuestRejected
		guest.Enabled = false
		guest.RejectedReason = strings.TrimSpace(payload.Reason)
	}

	if err := db.Save(&guest).Error; err != nil {
		log.Printf("decideGuest: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save decision")
		return
	}

	websocket.SendGuestDecision(&guest, actor.User.Email)
	utils.RespondWithJSON(w, http.StatusOK, guest)
}
