package usecase

import (
	"fmt"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// Moderation actions accepted by ModerateUser.
const (
	ActionBan     = "ban"
	ActionUnban   = "unban"
	ActionPromote = "promote"
	ActionDemote  = "demote"
)

// AdminService applies moderation actions to user accounts.
type AdminService struct {
	Users domain.UserRepository
}

// NewAdminService constructs an AdminService.
func NewAdminService(u domain.UserRepository) AdminService {
	return AdminService{Users: u}
}

// ModerateUser applies one moderation action to the target user. Admins
// cannot act on their own account.
func (s AdminService) ModerateUser(ctx domain.Context, actorID, targetID, action string) (domain.User, error) {
	if actorID == targetID {
		return domain.User{}, fmt.Errorf("%w: cannot moderate own account", domain.ErrForbidden)
	}
	if _, err := s.Users.Get(ctx, targetID); err != nil {
		return domain.User{}, err
	}

	var err error
	switch action {
	case ActionBan:
		err = s.Users.SetBanned(ctx, targetID, true)
	case ActionUnban:
		err = s.Users.SetBanned(ctx, targetID, false)
	case ActionPromote:
		err = s.Users.SetRole(ctx, targetID, domain.RoleAdmin)
	case ActionDemote:
		err = s.Users.SetRole(ctx, targetID, domain.RoleUser)
	default:
		return domain.User{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidArgument, action)
	}
	if err != nil {
		return domain.User{}, err
	}
	return s.Users.Get(ctx, targetID)
}
