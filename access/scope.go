// access/scope.go
//
// AccessScope: translates a resolved actor into concrete authorization
// decisions and filtered collections. Three-tier policy throughout:
// anonymous callers get empty results, superusers get everything, regular
// users are scoped through group membership.
//
// Asset policy (unified across the observed variants): an asset is visible
// when the actor owns it or belongs to any of its groups as member or admin;
// it is editable only through admin membership. Ownership grants view, never
// edit. Location membership never governs asset visibility.
package access

import (
	"gorm.io/gorm"

	"itin/models"
)

// AssignableLocationIDs is the set of locations the actor may administer: the
// locations directly tagged with one of the actor's groups, expanded downward
// over the tree. Admin of a location implies admin of everything beneath it.
func AssignableLocationIDs(db *gorm.DB, actor *Actor) (models.IDSet, error) {
	switch actor.Kind {
	case KindAnonymous:
		return models.NewIDSet(), nil
	case KindSuperuser:
		return allLocationIDs(db)
	}

	groupIDs := actor.GroupIDs()
	if len(groupIDs) == 0 {
		return models.NewIDSet(), nil
	}

	var taggedIDs []uint
	if err := db.Table("location_groups").
		Where("organizational_group_id IN ?", groupIDs.Slice()).
		Distinct().Pluck("location_id", &taggedIDs).Error; err != nil {
		return nil, err
	}
	if len(taggedIDs) == 0 {
		return models.NewIDSet(), nil
	}
	return models.DescendantIDs(db, models.NewIDSet(taggedIDs...))
}

// VisibleLocationIDs is the assignable subtree plus every ancestor of it, so
// breadcrumbs and the location tree render for read-only context.
func VisibleLocationIDs(db *gorm.DB, actor *Actor) (models.IDSet, error) {
	assignable, err := AssignableLocationIDs(db, actor)
	if err != nil {
		return nil, err
	}
	if actor.Kind == KindSuperuser || len(assignable) == 0 {
		return assignable, nil
	}
	ancestors, err := models.AncestorIDs(db, assignable)
	if err != nil {
		return nil, err
	}
	for id := range ancestors {
		assignable.Add(id)
	}
	return assignable, nil
}

// VisibleLocations returns a query over the locations the actor may see.
func VisibleLocations(db *gorm.DB, actor *Actor) (*gorm.DB, error) {
	if actor.Kind == KindSuperuser {
		return db.Model(&models.Location{}), nil
	}
	ids, err := VisibleLocationIDs(db, actor)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return db.Model(&models.Location{}).Where("1 = 0"), nil
	}
	return db.Model(&models.Location{}).Where("id IN ?", ids.Slice()), nil
}

// VisibleAssets returns a query over the assets the actor may see.
func VisibleAssets(db *gorm.DB, actor *Actor) *gorm.DB {
	query := db.Model(&models.Asset{})
	switch actor.Kind {
	case KindAnonymous:
		return query.Where("1 = 0")
	case KindSuperuser:
		return query
	}

	groupIDs := actor.GroupIDs()
	if len(groupIDs) == 0 {
		return query.Where("owner_id = ?", actor.User.ID)
	}
	sub := db.Table("asset_groups").Select("asset_id").
		Where("organizational_group_id IN ?", groupIDs.Slice())
	return query.Where("owner_id = ? OR assets.id IN (?)", actor.User.ID, sub)
}

// VisibleGroups returns a query over the groups the actor belongs to in
// either role (all groups for superusers).
func VisibleGroups(db *gorm.DB, actor *Actor) *gorm.DB {
	query := db.Model(&models.OrganizationalGroup{})
	switch actor.Kind {
	case KindAnonymous:
		return query.Where("1 = 0")
	case KindSuperuser:
		return query
	}
	ids := actor.GroupIDs()
	if len(ids) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where("id IN ?", ids.Slice())
}

// VisibleUsers scopes the user directory: superusers see every active user,
// staff see themselves plus all users of their administered groups, everyone
// else sees only themselves.
func VisibleUsers(db *gorm.DB, actor *Actor) *gorm.DB {
	query := db.Model(&models.User{}).Where("is_active = ?", true)
	switch {
	case actor.Kind == KindAnonymous:
		return query.Where("1 = 0")
	case actor.Kind == KindSuperuser:
		return query
	case actor.IsStaff():
		adminIDs := actor.AdminGroupIDs()
		if len(adminIDs) == 0 {
			return query.Where("id = ?", actor.User.ID)
		}
		members := db.Table("group_members").Select("user_id").
			Where("organizational_group_id IN ?", adminIDs.Slice())
		admins := db.Table("group_admins").Select("user_id").
			Where("organizational_group_id IN ?", adminIDs.Slice())
		return query.Where("id = ? OR id IN (?) OR id IN (?)", actor.User.ID, members, admins)
	}
	return query.Where("id = ?", actor.User.ID)
}

// CanViewAsset reports read access: superusers always, owners always, and
// member or admin intersection with the asset's groups.
func CanViewAsset(db *gorm.DB, actor *Actor, asset *models.Asset) (bool, error) {
	switch actor.Kind {
	case KindAnonymous:
		return false, nil
	case KindSuperuser:
		return true, nil
	}
	if asset.OwnerID != nil && *asset.OwnerID == actor.User.ID {
		return true, nil
	}
	return assetGroupsIntersect(db, asset.ID, actor.GroupIDs())
}

// CanEditAsset reports write access: superusers always, otherwise only admin
// intersection with the asset's groups. Ownership alone never grants edit.
func CanEditAsset(db *gorm.DB, actor *Actor, asset *models.Asset) (bool, error) {
	switch actor.Kind {
	case KindAnonymous:
		return false, nil
	case KindSuperuser:
		return true, nil
	}
	return assetGroupsIntersect(db, asset.ID, actor.AdminGroupIDs())
}

func assetGroupsIntersect(db *gorm.DB, assetID uint, groupIDs models.IDSet) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var count int64
	if err := db.Table("asset_groups").
		Where("asset_id = ? AND organizational_group_id IN ?", assetID, groupIDs.Slice()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func allLocationIDs(db *gorm.DB) (models.IDSet, error) {
	var ids []uint
	if err := db.Model(&models.Location{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return models.NewIDSet(ids...), nil
}
