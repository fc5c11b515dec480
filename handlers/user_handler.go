// handlers/user_handler.go
package handlers

import (
	"log"
	"net/http"

	"itin/access"
	"itin/models"
	"itin/utils"
)

// ListUsers returns the user directory scoped to the caller: superusers see
// everyone, staff see users of their managed groups, others only themselves.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsAuthenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := access.VisibleUsers(db, actor)
	if q := r.URL.Query().Get("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	var users []models.User
	if err := query.Order("email").Find(&users).Error; err != nil {
		log.Printf("ListUsers: query failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}
