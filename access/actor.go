// access/actor.go
package access

import (
	"gorm.io/gorm"

	"itin/models"
)

// ActorKind classifies the caller once per request so that every authorization
// decision is a switch on one value instead of scattered flag checks.
type ActorKind int

const (
	KindAnonymous ActorKind = iota
	KindMember
	KindAdmin
	KindSuperuser
)

func (k ActorKind) String() string {
	switch k {
	case KindAnonymous:
		return "anonymous"
	case KindMember:
		return "member"
	case KindAdmin:
		return "admin"
	case KindSuperuser:
		return "superuser"
	}
	return "unknown"
}

// Actor is a resolved caller identity: the user record plus its group
// memberships, computed once and reused for every scope query in the request.
type Actor struct {
	User *models.User
	Kind ActorKind

	memberGroupIDs models.IDSet
	adminGroupIDs  models.IDSet
}

// Anonymous is the actor for unauthenticated callers.
func Anonymous() *Actor {
	return &Actor{
		Kind:           KindAnonymous,
		memberGroupIDs: models.NewIDSet(),
		adminGroupIDs:  models.NewIDSet(),
	}
}

// Resolve builds the actor for a user. nil or inactive users resolve to
// anonymous; superusers skip the group lookups entirely.
func Resolve(db *gorm.DB, user *models.User) (*Actor, error) {
	if user == nil || user.ID == 0 || !user.IsActive {
		return Anonymous(), nil
	}
	if user.IsSuperuser {
		return &Actor{
			User:           user,
			Kind:           KindSuperuser,
			memberGroupIDs: models.NewIDSet(),
			adminGroupIDs:  models.NewIDSet(),
		}, nil
	}

	memberIDs, err := groupIDsFromJoin(db, "group_members", user.ID)
	if err != nil {
		return nil, err
	}
	adminIDs, err := groupIDsFromJoin(db, "group_admins", user.ID)
	if err != nil {
		return nil, err
	}

	kind := KindMember
	if len(adminIDs) > 0 {
		kind = KindAdmin
	}
	return &Actor{
		User:           user,
		Kind:           kind,
		memberGroupIDs: memberIDs,
		adminGroupIDs:  adminIDs,
	}, nil
}

func (a *Actor) IsAuthenticated() bool {
	return a.Kind != KindAnonymous
}

func (a *Actor) IsSuperuser() bool {
	return a.Kind == KindSuperuser
}

func (a *Actor) IsStaff() bool {
	return a.Kind == KindSuperuser || (a.User != nil && a.User.IsStaff)
}

// GroupIDs is the union of member and admin groups.
func (a *Actor) GroupIDs() models.IDSet {
	union := models.NewIDSet()
	for id := range a.memberGroupIDs {
		union.Add(id)
	}
	for id := range a.adminGroupIDs {
		union.Add(id)
	}
	return union
}

// AdminGroupIDs is the set of groups where the actor has the admin role.
func (a *Actor) AdminGroupIDs() models.IDSet {
	return a.adminGroupIDs
}

// GroupIDsForUser is the raw union lookup (member or admin). It deliberately
// applies no superuser/anonymous short-circuit.
func GroupIDsForUser(db *gorm.DB, user *models.User) (models.IDSet, error) {
	result := models.NewIDSet()
	if user == nil || user.ID == 0 {
		return result, nil
	}
	memberIDs, err := groupIDsFromJoin(db, "group_members", user.ID)
	if err != nil {
		return nil, err
	}
	adminIDs, err := groupIDsFromJoin(db, "group_admins", user.ID)
	if err != nil {
		return nil, err
	}
	for id := range memberIDs {
		result.Add(id)
	}
	for id := range adminIDs {
		result.Add(id)
	}
	return result, nil
}

func groupIDsFromJoin(db *gorm.DB, table string, userID uint) (models.IDSet, error) {
	var ids []uint
	if err := db.Table(table).Where("user_id = ?", userID).
		Pluck("organizational_group_id", &ids).Error; err != nil {
		return nil, err
	}
	return models.NewIDSet(ids...), nil
}
