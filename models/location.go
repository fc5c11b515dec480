// models/location.go
package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Location is a node in the organizational/physical hierarchy (building,
// floor, room). The parent pointer is authoritative for the tree structure;
// PathCache is a denormalized slash-joined slug path maintained by
// CreateLocation/MoveOrRenameLocation and must never be hand-edited.
type Location struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	Name        string                `gorm:"size:200;not null;uniqueIndex:uniq_location_name_per_parent" json:"name"`
	Slug        string                `gorm:"size:220;not null;uniqueIndex:uniq_location_slug_per_parent" json:"slug"`
	PathCache   string                `gorm:"size:2000;index" json:"path"`
	ParentID    *uint                 `gorm:"uniqueIndex:uniq_location_name_per_parent;uniqueIndex:uniq_location_slug_per_parent" json:"parent"`
	Parent      *Location             `gorm:"foreignKey:ParentID" json:"-"`
	Description string                `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSON        `json:"metadata,omitempty"`
	Groups      []OrganizationalGroup `gorm:"many2many:location_groups" json:"-"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// IDSet is the working representation for tree expansions and scope results.
type IDSet map[uint]struct{}

func NewIDSet(ids ...uint) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id uint) {
	s[id] = struct{}{}
}

func (s IDSet) Slice() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// CreateLocation validates and persists a new location, computing its path
// cache. The slug auto-derives from the name when empty. Name and slug must be
// unique among the parent's children.
func CreateLocation(db *gorm.DB, loc *Location) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := validateLocation(tx, loc); err != nil {
			return err
		}
		path, err := computePathCache(tx, loc)
		if err != nil {
			return err
		}
		loc.PathCache = path
		return tx.Omit("Groups", "Parent").Create(loc).Error
	})
}

// MoveOrRenameLocation persists a structural change (new parent, name or slug)
// to an existing location. It rejects cycles, recomputes the node's own path
// cache and cascades the rebuild to every descendant in the same transaction.
// Re-running the cascade from a fully applied state is a no-op.
func MoveOrRenameLocation(db *gorm.DB, loc *Location) error {
	if loc.ID == 0 {
		return NewValidationError("id", "Location must be saved before it can be moved or renamed.")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := validateLocation(tx, loc); err != nil {
			return err
		}
		if err := tx.Omit("Groups", "Parent").Save(loc).Error; err != nil {
			return err
		}
		path, err := computePathCache(tx, loc)
		if err != nil {
			return err
		}
		if path != loc.PathCache {
			if err := tx.Model(&Location{}).Where("id = ?", loc.ID).Update("path_cache", path).Error; err != nil {
				return err
			}
			loc.PathCache = path
		}
		return rebuildDescendantPaths(tx, loc.ID, loc.PathCache)
	})
}

// AncestorChain walks parent pointers and returns the chain root-first,
// including the location itself. O(depth); termination is guaranteed by the
// acyclicity enforced in MoveOrRenameLocation.
func AncestorChain(db *gorm.DB, loc *Location) ([]Location, error) {
	chain := []Location{*loc}
	parentID := loc.ParentID
	for parentID != nil {
		var parent Location
		if err := db.First(&parent, *parentID).Error; err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		parentID = parent.ParentID
	}
	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// DescendantIDs expands a seed set downward along child edges, level by level,
// until a frontier adds nothing new. The result includes the (existing) seeds
// themselves. Unknown seed ids simply do not expand.
func DescendantIDs(db *gorm.DB, seeds IDSet) (IDSet, error) {
	result, err := existingLocationIDs(db, seeds)
	if err != nil {
		return nil, err
	}
	frontier := result.Slice()
	for len(frontier) > 0 {
		var childIDs []uint
		if err := db.Model(&Location{}).Where("parent_id IN ?", frontier).Pluck("id", &childIDs).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range childIDs {
			if !result.Has(id) {
				result.Add(id)
				frontier = append(frontier, id)
			}
		}
	}
	return result, nil
}

// AncestorIDs expands a seed set upward along parent pointers, stopping at
// roots. The result includes the (existing) seeds themselves.
func AncestorIDs(db *gorm.DB, seeds IDSet) (IDSet, error) {
	result, err := existingLocationIDs(db, seeds)
	if err != nil {
		return nil, err
	}
	frontier := result.Slice()
	for len(frontier) > 0 {
		var parentIDs []uint
		if err := db.Model(&Location{}).
			Where("id IN ? AND parent_id IS NOT NULL", frontier).
			Pluck("parent_id", &parentIDs).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range parentIDs {
			if !result.Has(id) {
				result.Add(id)
				frontier = append(frontier, id)
			}
		}
	}
	return result, nil
}

func existingLocationIDs(db *gorm.DB, seeds IDSet) (IDSet, error) {
	result := NewIDSet()
	if len(seeds) == 0 {
		return result, nil
	}
	var ids []uint
	if err := db.Model(&Location{}).Where("id IN ?", seeds.Slice()).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result.Add(id)
	}
	return result, nil
}

func validateLocation(tx *gorm.DB, loc *Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return NewValidationError("name", "Name is required.")
	}
	if loc.Slug == "" {
		loc.Slug = Slugify(loc.Name)
	}
	if loc.Slug == "" {
		return NewValidationError("slug", "Slug cannot be empty.")
	}

	if loc.ParentID != nil {
		if loc.ID != 0 && *loc.ParentID == loc.ID {
			return NewValidationError("parent", "Location cannot be parent of itself.")
		}
		// Walk the proposed parent's ancestor chain; meeting the location
		// itself means the new parent is one of its descendants.
		currentID := loc.ParentID
		for currentID != nil {
			if loc.ID != 0 && *currentID == loc.ID {
				return NewValidationError("parent", "Location hierarchy cannot contain cycles.")
			}
			var parent Location
			if err := tx.Select("id", "parent_id").First(&parent, *currentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewValidationError("parent", "Parent location does not exist.")
				}
				return err
			}
			currentID = parent.ParentID
		}
	}

	if err := checkSiblingUnique(tx, loc, "name", loc.Name, "Name must be unique among siblings."); err != nil {
		return err
	}
	return checkSiblingUnique(tx, loc, "slug", loc.Slug, "Slug must be unique among siblings.")
}

func checkSiblingUnique(tx *gorm.DB, loc *Location, column, value, message string) error {
	query := tx.Model(&Location{}).Where(column+" = ?", value)
	if loc.ParentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *loc.ParentID)
	}
	if loc.ID != 0 {
		query = query.Where("id <> ?", loc.ID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError(column, message)
	}
	return nil
}

func computePathCache(tx *gorm.DB, loc *Location) (string, error) {
	if loc.ParentID == nil {
		return loc.Slug, nil
	}
	var parent Location
	if err := tx.Select("id", "path_cache").First(&parent, *loc.ParentID).Error; err != nil {
		return "", err
	}
	if parent.PathCache == "" {
		return loc.Slug, nil
	}
	return parent.PathCache + "/" + loc.Slug, nil
}

// rebuildDescendantPaths walks the subtree level by level and rewrites every
// stale path cache. Deterministic and idempotent.
func rebuildDescendantPaths(tx *gorm.DB, rootID uint, rootPath string) error {
	type frontierNode struct {
		id   uint
		path string
	}
	frontier := []frontierNode{{id: rootID, path: rootPath}}
	for len(frontier) > 0 {
		parentPaths := make(map[uint]string, len(frontier))
		parentIDs := make([]uint, 0, len(frontier))
		for _, node := range frontier {
			parentPaths[node.id] = node.path
			parentIDs = append(parentIDs, node.id)
		}

		var children []Location
		if err := tx.Select("id", "parent_id", "slug", "path_cache").
			Where("parent_id IN ?", parentIDs).Find(&children).Error; err != nil {
			return err
		}

		frontier = frontier[:0]
		for _, child := range children {
			parentPath := parentPaths[*child.ParentID]
			newPath := child.Slug
			if parentPath != "" {
				newPath = parentPath + "/" + child.Slug
			}
			if child.PathCache != newPath {
				if err := tx.Model(&Location{}).Where("id = ?", child.ID).Update("path_cache", newPath).Error; err != nil {
					return err
				}
			}
			frontier = append(frontier, frontierNode{id: child.ID, path: newPath})
		}
	}
	return nil
}
