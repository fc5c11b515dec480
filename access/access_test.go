package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"itin/access"
	"itin/database"
	"itin/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, mutate func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{Email: email, IsActive: true}
	if mutate != nil {
		mutate(user)
	}
	isActive := user.IsActive
	require.NoError(t, db.Create(user).Error)
	if !isActive {
		// IsActive has a true column default, so the zero value is omitted
		// from the INSERT and back-filled; force it through.
		require.NoError(t, db.Model(user).Update("is_active", false).Error)
		user.IsActive = false
	}
	return user
}

func createGroup(t *testing.T, db *gorm.DB, name string, members, admins []*models.User) *models.OrganizationalGroup {
	t.Helper()
	group := &models.OrganizationalGroup{Name: name}
	require.NoError(t, db.Create(group).Error)
	for _, u := range members {
		require.NoError(t, db.Model(group).Association("Members").Append(u))
	}
	for _, u := range admins {
		require.NoError(t, db.Model(group).Association("Admins").Append(u))
	}
	return group
}

func createLocation(t *testing.T, db *gorm.DB, name string, parentID *uint, groups ...*models.OrganizationalGroup) *models.Location {
	t.Helper()
	loc := &models.Location{Name: name, ParentID: parentID}
	require.NoError(t, models.CreateLocation(db, loc))
	for _, g := range groups {
		require.NoError(t, db.Model(loc).Association("Groups").Append(g))
	}
	return loc
}

func createAsset(t *testing.T, db *gorm.DB, name string, ownerID *uint, groups ...*models.OrganizationalGroup) *models.Asset {
	t.Helper()
	asset := &models.Asset{Name: name, OwnerID: ownerID}
	require.NoError(t, asset.Validate())
	require.NoError(t, db.Omit("Groups", "Owner", "Location").Create(asset).Error)
	for _, g := range groups {
		require.NoError(t, db.Model(asset).Association("Groups").Append(g))
	}
	return asset
}

func resolve(t *testing.T, db *gorm.DB, user *models.User) *access.Actor {
	t.Helper()
	actor, err := access.Resolve(db, user)
	require.NoError(t, err)
	return actor
}

func TestResolveClassifiesActors(t *testing.T) {
	db := newTestDB(t)

	member := createUser(t, db, "member@example.com", nil)
	admin := createUser(t, db, "admin@example.com", nil)
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	inactive := createUser(t, db, "gone@example.com", func(u *models.User) { u.IsActive = false })
	group := createGroup(t, db, "it", []*models.User{member}, []*models.User{admin})

	actor := resolve(t, db, nil)
	assert.Equal(t, access.KindAnonymous, actor.Kind)
	assert.False(t, actor.IsAuthenticated())

	actor = resolve(t, db, inactive)
	assert.Equal(t, access.KindAnonymous, actor.Kind)

	actor = resolve(t, db, root)
	assert.Equal(t, access.KindSuperuser, actor.Kind)
	assert.True(t, actor.IsStaff())

	actor = resolve(t, db, member)
	assert.Equal(t, access.KindMember, actor.Kind)
	assert.ElementsMatch(t, []uint{group.ID}, actor.GroupIDs().Slice())
	assert.Empty(t, actor.AdminGroupIDs())

	actor = resolve(t, db, admin)
	assert.Equal(t, access.KindAdmin, actor.Kind)
	assert.ElementsMatch(t, []uint{group.ID}, actor.GroupIDs().Slice())
	assert.ElementsMatch(t, []uint{group.ID}, actor.AdminGroupIDs().Slice())
}

func TestLocationScopes(t *testing.T) {
	db := newTestDB(t)

	member := createUser(t, db, "member@example.com", nil)
	outsider := createUser(t, db, "outsider@example.com", nil)
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	group := createGroup(t, db, "facilities", []*models.User{member}, nil)

	campus := createLocation(t, db, "Main Campus", nil)
	floor := createLocation(t, db, "Floor 1", &campus.ID, group)
	room := createLocation(t, db, "Room 101", &floor.ID)
	other := createLocation(t, db, "Annex", nil)

	actor := resolve(t, db, member)

	// tagging a location grants its whole subtree
	assignable, err := access.AssignableLocationIDs(db, actor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{floor.ID, room.ID}, assignable.Slice())

	// visibility adds the ancestors for context, read-only
	visible, err := access.VisibleLocationIDs(db, actor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{campus.ID, floor.ID, room.ID}, visible.Slice())
	for id := range assignable {
		assert.True(t, visible.Has(id), "assignable id %d missing from visible set", id)
	}
	assert.False(t, visible.Has(other.ID))

	// a user with no groups sees nothing
	assignable, err = access.AssignableLocationIDs(db, resolve(t, db, outsider))
	require.NoError(t, err)
	assert.Empty(t, assignable)

	// anonymous sees nothing
	visible, err = access.VisibleLocationIDs(db, access.Anonymous())
	require.NoError(t, err)
	assert.Empty(t, visible)

	// superusers see everything
	assignable, err = access.AssignableLocationIDs(db, resolve(t, db, root))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{campus.ID, floor.ID, room.ID, other.ID}, assignable.Slice())

	query, err := access.VisibleLocations(db, actor)
	require.NoError(t, err)
	var count int64
	require.NoError(t, query.Count(&count).Error)
	assert.EqualValues(t, 3, count)

	query, err = access.VisibleLocations(db, access.Anonymous())
	require.NoError(t, err)
	require.NoError(t, query.Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestVisibleAssets(t *testing.T) {
	db := newTestDB(t)

	owner := createUser(t, db, "owner@example.com", nil)
	member := createUser(t, db, "member@example.com", nil)
	outsider := createUser(t, db, "outsider@example.com", nil)
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	group := createGroup(t, db, "it", []*models.User{member}, nil)

	owned := createAsset(t, db, "owned-pc", &owner.ID)
	shared := createAsset(t, db, "shared-pc", nil, group)
	hidden := createAsset(t, db, "hidden-pc", nil)

	assetIDs := func(actor *access.Actor) []uint {
		var ids []uint
		require.NoError(t, access.VisibleAssets(db, actor).Pluck("assets.id", &ids).Error)
		return ids
	}

	assert.ElementsMatch(t, []uint{owned.ID}, assetIDs(resolve(t, db, owner)))
	assert.ElementsMatch(t, []uint{shared.ID}, assetIDs(resolve(t, db, member)))
	assert.Empty(t, assetIDs(resolve(t, db, outsider)))
	assert.Empty(t, assetIDs(access.Anonymous()))
	assert.ElementsMatch(t, []uint{owned.ID, shared.ID, hidden.ID}, assetIDs(resolve(t, db, root)))
}

func TestAssetPermissions(t *testing.T) {
	db := newTestDB(t)

	owner := createUser(t, db, "owner@example.com", nil)
	member := createUser(t, db, "member@example.com", nil)
	admin := createUser(t, db, "admin@example.com", nil)
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	group := createGroup(t, db, "it", []*models.User{member}, []*models.User{admin})

	asset := createAsset(t, db, "shared-pc", &owner.ID, group)

	cases := []struct {
		name     string
		actor    *access.Actor
		canView  bool
		canEdit  bool
	}{
		{"anonymous", access.Anonymous(), false, false},
		{"owner", resolve(t, db, owner), true, false},
		{"member", resolve(t, db, member), true, false},
		{"admin", resolve(t, db, admin), true, true},
		{"superuser", resolve(t, db, root), true, true},
	}
	for _, tc := range cases {
		canView, err := access.CanViewAsset(db, tc.actor, asset)
		require.NoError(t, err)
		assert.Equal(t, tc.canView, canView, "%s view", tc.name)

		canEdit, err := access.CanEditAsset(db, tc.actor, asset)
		require.NoError(t, err)
		assert.Equal(t, tc.canEdit, canEdit, "%s edit", tc.name)

		if canEdit {
			assert.True(t, canView, "%s: edit must imply view", tc.name)
		}
	}
}

func TestVisibleGroups(t *testing.T) {
	db := newTestDB(t)

	member := createUser(t, db, "member@example.com", nil)
	outsider := createUser(t, db, "outsider@example.com", nil)
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	group := createGroup(t, db, "it", []*models.User{member}, nil)
	createGroup(t, db, "hr", nil, nil)

	groupIDs := func(actor *access.Actor) []uint {
		var ids []uint
		require.NoError(t, access.VisibleGroups(db, actor).Pluck("id", &ids).Error)
		return ids
	}

	assert.ElementsMatch(t, []uint{group.ID}, groupIDs(resolve(t, db, member)))
	assert.Empty(t, groupIDs(resolve(t, db, outsider)))
	assert.Len(t, groupIDs(resolve(t, db, root)), 2)
	assert.Empty(t, groupIDs(access.Anonymous()))
}

func TestVisibleUsers(t *testing.T) {
	db := newTestDB(t)

	member := createUser(t, db, "member@example.com", nil)
	staff := createUser(t, db, "staff@example.com", func(u *models.User) { u.IsStaff = true })
	lonelyStaff := createUser(t, db, "lonely@example.com", func(u *models.User) { u.IsStaff = true })
	root := createUser(t, db, "root@example.com", func(u *models.User) { u.IsSuperuser = true })
	inactive := createUser(t, db, "gone@example.com", func(u *models.User) { u.IsActive = false })
	createGroup(t, db, "it", []*models.User{member}, []*models.User{staff})

	userIDs := func(actor *access.Actor) []uint {
		var ids []uint
		require.NoError(t, access.VisibleUsers(db, actor).Pluck("id", &ids).Error)
		return ids
	}

	// regular users see only themselves
	assert.ElementsMatch(t, []uint{member.ID}, userIDs(resolve(t, db, member)))

	// staff see themselves plus everyone in their administered groups
	assert.ElementsMatch(t, []uint{staff.ID, member.ID}, userIDs(resolve(t, db, staff)))

	// staff without administered groups fall back to themselves
	assert.ElementsMatch(t, []uint{lonelyStaff.ID}, userIDs(resolve(t, db, lonelyStaff)))

	// superusers see every active user, inactive accounts stay hidden
	ids := userIDs(resolve(t, db, root))
	assert.ElementsMatch(t, []uint{member.ID, staff.ID, lonelyStaff.ID, root.ID}, ids)
	assert.NotContains(t, ids, inactive.ID)

	assert.Empty(t, userIDs(access.Anonymous()))
}
