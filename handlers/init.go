// handlers/init.go
package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"itin/access"
	"itin/models"
)

var db *gorm.DB

// Init wires the shared database handle used by every handler.
func Init(database *gorm.DB) {
	db = database
}

func currentActor(r *http.Request) *access.Actor {
	if actor, ok := r.Context().Value("actor").(*access.Actor); ok && actor != nil {
		return actor
	}
	return access.Anonymous()
}

func canEditAsset(r *http.Request, asset *models.Asset) (bool, error) {
	return access.CanEditAsset(db, currentActor(r), asset)
}
