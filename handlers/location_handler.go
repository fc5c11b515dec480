// handlers/location_handler.go
package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"itin/access"
	"itin/models"
	"itin/utils"
)

type locationPayload struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Parent      *uint          `json:"parent"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
	Groups      *[]uint        `json:"groups"`
}

type locationNode struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Parent   *uint           `json:"parent"`
	Path     string          `json:"path"`
	Children []*locationNode `json:"children"`
}

// ListLocations returns the locations visible to the caller, optionally
// filtered by parent ("null" for roots).
func ListLocations(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	query, err := access.VisibleLocations(db, actor)
	if err != nil {
		log.Printf("ListLocations: scope failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute visibility")
		return
	}

	parent := r.URL.Query().Get("parent")
	if parent == "null" {
		query = query.Where("parent_id IS NULL")
	} else if parent != "" {
		parentID, err := strconv.ParseUint(parent, 10, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid parent id")
			return
		}
		query = query.Where("parent_id = ?", parentID)
	}

	var locations []models.Location
	if err := query.Order("name, id").Find(&locations).Error; err != nil {
		log.Printf("ListLocations: query failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}
	utils.RespondWithJSON(w, http.StatusOK, locations)
}

// LocationTree returns the visible locations as a nested forest.
func LocationTree(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	query, err := access.VisibleLocations(db, actor)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute visibility")
		return
	}

	var locations []models.Location
	if err := query.Order("name, id").Find(&locations).Error; err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	nodes := make(map[uint]*locationNode, len(locations))
	for _, loc := range locations {
		nodes[loc.ID] = &locationNode{
			ID:       loc.ID,
			Name:     loc.Name,
			Slug:     loc.Slug,
			Parent:   loc.ParentID,
			Path:     loc.PathCache,
			Children: []*locationNode{},
		}
	}
	roots := []*locationNode{}
	for _, loc := range locations {
		node := nodes[loc.ID]
		if loc.ParentID != nil {
			if parent, ok := nodes[*loc.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	utils.RespondWithJSON(w, http.StatusOK, roots)
}

// GetLocation returns one visible location with its breadcrumb chain.
func GetLocation(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid location id")
		return
	}

	visibleIDs, err := access.VisibleLocationIDs(db, actor)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute visibility")
		return
	}
	if !actor.IsSuperuser() && !visibleIDs.Has(id) {
		utils.RespondWithError(w, http.StatusNotFound, "Location not found")
		return
	}

	var location models.Location
	if err := db.Preload("Groups").First(&location, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Location not found")
		return
	}

	chain, err := models.AncestorChain(db, &location)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to walk ancestors")
		return
	}
	breadcrumbs := make([]map[string]interface{}, 0, len(chain))
	for _, ancestor := range chain {
		breadcrumbs = append(breadcrumbs, map[string]interface{}{
			"id":   ancestor.ID,
			"name": ancestor.Name,
			"slug": ancestor.Slug,
		})
	}

	assignable, err := access.AssignableLocationIDs(db, actor)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute visibility")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"location":    location,
		"groups":      location.Groups,
		"breadcrumbs": breadcrumbs,
		"editable":    assignable.Has(location.ID),
	})
}

// CreateLocation creates a location. Non-superusers must tag at least one of
// their administered groups and stay inside their visible tree.
func CreateLocation(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	var payload locationPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	groupIDs := []uint{}
	if payload.Groups != nil {
		groupIDs = *payload.Groups
	}
	if code, msg := checkLocationWriteScope(actor, groupIDs, payload.Parent); code != 0 {
		utils.RespondWithError(w, code, msg)
		return
	}

	location := models.Location{
		Name:        payload.Name,
		Slug:        payload.Slug,
		ParentID:    payload.Parent,
		Description: payload.Description,
		Metadata:    payload.Metadata,
	}
	if err := models.CreateLocation(db, &location); err != nil {
		respondLocationError(w, err)
		return
	}
	if len(groupIDs) > 0 {
		if err := setLocationGroups(&location, groupIDs); err != nil {
			log.Printf("CreateLocation: group assignment failed: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to assign groups")
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusCreated, location)
}

// UpdateLocation renames and/or moves a location, cascading the path cache.
func UpdateLocation(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid location id")
		return
	}

	var location models.Location
	if err := db.Preload("Groups").First(&location, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Location not found")
		return
	}

	var payload locationPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	effectiveGroups := make([]uint, 0, len(location.Groups))
	for _, group := range location.Groups {
		effectiveGroups = append(effectiveGroups, group.ID)
	}
	if payload.Groups != nil {
		effectiveGroups = *payload.Groups
	}
	parent := location.ParentID
	if payload.Parent != nil {
		parent = payload.Parent
	}
	if code, msg := checkLocationWriteScope(actor, effectiveGroups, parent); code != 0 {
		utils.RespondWithError(w, code, msg)
		return
	}

	if payload.Name != "" {
		location.Name = payload.Name
	}
	if payload.Slug != "" {
		location.Slug = payload.Slug
	}
	if payload.Parent != nil {
		location.ParentID = payload.Parent
	}
	if payload.Description != "" {
		location.Description = payload.Description
	}
	if payload.Metadata != nil {
		location.Metadata = payload.Metadata
	}

	if err := models.MoveOrRenameLocation(db, &location); err != nil {
		respondLocationError(w, err)
		return
	}
	if payload.Groups != nil {
		if err := setLocationGroups(&location, *payload.Groups); err != nil {
			log.Printf("UpdateLocation: group assignment failed: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to assign groups")
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, location)
}

func checkLocationWriteScope(actor *access.Actor, groupIDs []uint, parent *uint) (int, string) {
	if !actor.IsAuthenticated() {
		return http.StatusUnauthorized, "Authentication required"
	}
	if actor.IsSuperuser() {
		return 0, ""
	}
	if len(groupIDs) == 0 {
		return http.StatusForbidden, "At least one group is required"
	}
	adminIDs := actor.AdminGroupIDs()
	for _, id := range groupIDs {
		if !adminIDs.Has(id) {
			return http.StatusForbidden, "Location groups are outside your managed groups"
		}
	}
	if parent != nil {
		visibleIDs, err := access.VisibleLocationIDs(db, actor)
		if err != nil {
			return http.StatusInternalServerError, "Failed to compute visibility"
		}
		if !visibleIDs.Has(*parent) {
			return http.StatusForbidden, "Parent location is outside your visible tree"
		}
	}
	return 0, ""
}

func setLocationGroups(location *models.Location, groupIDs []uint) error {
	var groups []models.OrganizationalGroup
	if len(groupIDs) > 0 {
		if err := db.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			return err
		}
	}
	return db.Model(location).Association("Groups").Replace(groups)
}

func respondLocationError(w http.ResponseWriter, err error) {
	if verr, ok := models.IsValidationError(err); ok {
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]string{
			"field": verr.Field,
			"error": verr.Message,
		})
		return
	}
	log.Printf("location write failed: %v", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save location")
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}
