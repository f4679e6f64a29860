// Package rbac implements project-level access rules over the ordered
// role hierarchy viewer < member < admin < owner.
package rbac

import (
	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

// HasPermission reports whether userRole ranks at least as high as required.
// Unknown roles never satisfy a requirement.
func HasPermission(userRole, required models.Role) bool {
	if !userRole.Valid() || !required.Valid() {
		return false
	}
	return userRole >= required
}

// Require returns common.ErrInsufficientPermissions unless role satisfies min.
func Require(role, min models.Role) error {
	if !HasPermission(role, min) {
		return common.ErrInsufficientPermissions
	}
	return nil
}

// CanRemoveMember decides whether actor may remove target from their shared
// project.
//
// Anyone except the owner may remove themselves. The owner must transfer
// ownership first and gets common.ErrOwnerCannotLeave. The owner may remove
// anyone else. An admin may remove members and viewers, never another admin
// or the owner.
func CanRemoveMember(actor, target models.Membership) error {
	if actor.UserID == target.UserID {
		if actor.Role == models.RoleOwner {
			return common.ErrOwnerCannotLeave
		}
		return nil
	}

	switch actor.Role {
	case models.RoleOwner:
		return nil
	case models.RoleAdmin:
		if target.Role < models.RoleAdmin {
			return nil
		}
	}
	return common.ErrInsufficientPermissions
}

// CanChangeRole decides whether actor may give target the role newRole.
//
// Nobody changes their own role and the owner role only moves through a
// transfer. The owner may assign viewer, member or admin to anyone else.
// An admin may switch viewers and members between those two roles.
func CanChangeRole(actor, target models.Membership, newRole models.Role) error {
	if !newRole.Valid() {
		return common.NewValidationError("invalid role")
	}
	if newRole == models.RoleOwner {
		return common.NewValidationError("ownership can only be transferred")
	}
	if actor.UserID == target.UserID {
		return common.ErrInsufficientPermissions
	}

	switch actor.Role {
	case models.RoleOwner:
		return nil
	case models.RoleAdmin:
		if target.Role < models.RoleAdmin && newRole < models.RoleAdmin {
			return nil
		}
	}
	return common.ErrInsufficientPermissions
}

// CanAddMember decides whether actor may add someone with role. Owners may
// grant up to admin, admins up to member.
func CanAddMember(actor models.Membership, role models.Role) error {
	if !role.Valid() {
		return common.NewValidationError("invalid role")
	}
	if role == models.RoleOwner {
		return common.NewValidationError("ownership can only be transferred")
	}

	switch actor.Role {
	case models.RoleOwner:
		return nil
	case models.RoleAdmin:
		if role < models.RoleAdmin {
			return nil
		}
	}
	return common.ErrInsufficientPermissions
}

// CanTransferOwnership allows only the owner to hand the project to another
// existing member.
func CanTransferOwnership(actor, target models.Membership) error {
	if actor.Role != models.RoleOwner {
		return common.ErrInsufficientPermissions
	}
	if actor.UserID == target.UserID {
		return common.NewValidationError("already the owner")
	}
	return nil
}
