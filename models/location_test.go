package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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
	// one connection so the in-memory database is shared
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func mustCreateLocation(t *testing.T, db *gorm.DB, name string, parentID *uint) *models.Location {
	t.Helper()
	loc := &models.Location{Name: name, ParentID: parentID}
	require.NoError(t, models.CreateLocation(db, loc))
	return loc
}

func reloadLocation(t *testing.T, db *gorm.DB, id uint) *models.Location {
	t.Helper()
	var loc models.Location
	require.NoError(t, db.First(&loc, id).Error)
	return &loc
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	verr, ok := models.IsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Equal(t, field, verr.Field)
}

func TestCreateLocationDerivesSlugAndPath(t *testing.T) {
	db := newTestDB(t)

	campus := mustCreateLocation(t, db, "Main Campus", nil)
	assert.Equal(t, "main-campus", campus.Slug)
	assert.Equal(t, "main-campus", campus.PathCache)

	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	assert.Equal(t, "floor-1", floor.Slug)
	assert.Equal(t, "main-campus/floor-1", floor.PathCache)

	room := mustCreateLocation(t, db, "Room 101", &floor.ID)
	assert.Equal(t, "main-campus/floor-1/room-101", room.PathCache)
}

func TestCreateLocationRequiresName(t *testing.T) {
	db := newTestDB(t)
	err := models.CreateLocation(db, &models.Location{Name: "   "})
	requireFieldError(t, err, "name")
}

func TestCreateLocationSiblingUniqueness(t *testing.T) {
	db := newTestDB(t)

	campus := mustCreateLocation(t, db, "Main Campus", nil)
	annex := mustCreateLocation(t, db, "Annex", nil)
	mustCreateLocation(t, db, "Server Room", &campus.ID)

	// same name under the same parent
	err := models.CreateLocation(db, &models.Location{Name: "Server Room", ParentID: &campus.ID})
	requireFieldError(t, err, "name")

	// different name but colliding derived slug
	err = models.CreateLocation(db, &models.Location{Name: "server_room", ParentID: &campus.ID})
	requireFieldError(t, err, "slug")

	// same name under a different parent is fine
	other := &models.Location{Name: "Server Room", ParentID: &annex.ID}
	require.NoError(t, models.CreateLocation(db, other))
	assert.Equal(t, "annex/server-room", other.PathCache)
}

func TestCreateLocationRejectsMissingParent(t *testing.T) {
	db := newTestDB(t)
	missing := uint(9999)
	err := models.CreateLocation(db, &models.Location{Name: "Orphan", ParentID: &missing})
	requireFieldError(t, err, "parent")
}

func TestMoveRejectsSelfParent(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)

	campus.ParentID = &campus.ID
	err := models.MoveOrRenameLocation(db, campus)
	requireFieldError(t, err, "parent")
}

func TestMoveRejectsCycle(t *testing.T) {
	db := newTestDB(t)
	a := mustCreateLocation(t, db, "A", nil)
	b := mustCreateLocation(t, db, "B", &a.ID)
	c := mustCreateLocation(t, db, "C", &b.ID)

	a.ParentID = &c.ID
	err := models.MoveOrRenameLocation(db, a)
	requireFieldError(t, err, "parent")

	// the rejected move must not have touched the stored tree
	stored := reloadLocation(t, db, a.ID)
	assert.Nil(t, stored.ParentID)
	assert.Equal(t, "a", stored.PathCache)
	assert.Equal(t, "a/b/c", reloadLocation(t, db, c.ID).PathCache)
}

func TestMoveCascadesDescendantPaths(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)
	annex := mustCreateLocation(t, db, "Annex", nil)
	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	room := mustCreateLocation(t, db, "Room 101", &floor.ID)
	desk := mustCreateLocation(t, db, "Desk 7", &room.ID)

	floor.ParentID = &annex.ID
	require.NoError(t, models.MoveOrRenameLocation(db, floor))

	assert.Equal(t, "annex/floor-1", reloadLocation(t, db, floor.ID).PathCache)
	assert.Equal(t, "annex/floor-1/room-101", reloadLocation(t, db, room.ID).PathCache)
	assert.Equal(t, "annex/floor-1/room-101/desk-7", reloadLocation(t, db, desk.ID).PathCache)

	// re-applying the same state is a no-op
	require.NoError(t, models.MoveOrRenameLocation(db, floor))
	assert.Equal(t, "annex/floor-1/room-101/desk-7", reloadLocation(t, db, desk.ID).PathCache)
}

func TestRenameCascadesDescendantPaths(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)
	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	room := mustCreateLocation(t, db, "Room 101", &floor.ID)

	campus.Name = "Headquarters"
	campus.Slug = ""
	require.NoError(t, models.MoveOrRenameLocation(db, campus))

	assert.Equal(t, "headquarters", reloadLocation(t, db, campus.ID).PathCache)
	assert.Equal(t, "headquarters/floor-1", reloadLocation(t, db, floor.ID).PathCache)
	assert.Equal(t, "headquarters/floor-1/room-101", reloadLocation(t, db, room.ID).PathCache)
}

func TestMoveRejectsUnsavedLocation(t *testing.T) {
	db := newTestDB(t)
	err := models.MoveOrRenameLocation(db, &models.Location{Name: "New"})
	requireFieldError(t, err, "id")
}

func TestAncestorChainIsRootFirst(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)
	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	room := mustCreateLocation(t, db, "Room 101", &floor.ID)

	chain, err := models.AncestorChain(db, room)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, campus.ID, chain[0].ID)
	assert.Equal(t, floor.ID, chain[1].ID)
	assert.Equal(t, room.ID, chain[2].ID)
}

func TestDescendantIDs(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)
	annex := mustCreateLocation(t, db, "Annex", nil)
	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	room := mustCreateLocation(t, db, "Room 101", &floor.ID)

	ids, err := models.DescendantIDs(db, models.NewIDSet(campus.ID))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{campus.ID, floor.ID, room.ID}, ids.Slice())
	assert.False(t, ids.Has(annex.ID))

	// leaf expands to itself only
	ids, err = models.DescendantIDs(db, models.NewIDSet(room.ID))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{room.ID}, ids.Slice())

	// unknown seeds contribute nothing
	ids, err = models.DescendantIDs(db, models.NewIDSet(9999))
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = models.DescendantIDs(db, models.NewIDSet(floor.ID, 9999))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{floor.ID, room.ID}, ids.Slice())

	ids, err = models.DescendantIDs(db, models.NewIDSet())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAncestorIDs(t *testing.T) {
	db := newTestDB(t)
	campus := mustCreateLocation(t, db, "Main Campus", nil)
	annex := mustCreateLocation(t, db, "Annex", nil)
	floor := mustCreateLocation(t, db, "Floor 1", &campus.ID)
	room := mustCreateLocation(t, db, "Room 101", &floor.ID)

	ids, err := models.AncestorIDs(db, models.NewIDSet(room.ID))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{campus.ID, floor.ID, room.ID}, ids.Slice())
	assert.False(t, ids.Has(annex.ID))

	ids, err = models.AncestorIDs(db, models.NewIDSet(campus.ID))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{campus.ID}, ids.Slice())

	ids, err = models.AncestorIDs(db, models.NewIDSet(9999))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
