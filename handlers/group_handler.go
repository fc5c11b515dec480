// handlers/group_handler.go
package handlers

import (
	"log"
	"net/http"
	"strings"

	"itin/access"
	"itin/models"
	"itin/utils"
)

// ListGroups returns the groups visible to the caller.
func ListGroups(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := access.VisibleGroups(db, actor)
	if q := r.URL.Query().Get("q"); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}

	var groups []models.OrganizationalGroup
	if err := query.Order("name").Find(&groups).Error; err != nil {
		log.Printf("ListGroups: query failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if groups == nil {
		groups = []models.OrganizationalGroup{}
	}
	utils.RespondWithJSON(w, http.StatusOK, groups)
}

// CreateGroup creates a group. Staff only; the creator becomes its first admin.
func CreateGroup(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}

	var payload struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		DefaultVLANID *uint  `json:"defaultVlanId"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	group := models.OrganizationalGroup{
		Name:          payload.Name,
		Description:   payload.Description,
		DefaultVLANID: payload.DefaultVLANID,
	}
	if err := db.Create(&group).Error; err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Group name already exists")
		return
	}
	if err := db.Model(&group).Association("Admins").Append(actor.User); err != nil {
		log.Printf("CreateGroup: admin assignment failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, group)
}
