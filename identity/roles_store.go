package identity

import "context"

// RolesStore is the role persistence and lookup contract consumed by the
// external authentication framework.
//
// Name accessors mutate the in-memory role only; a name change takes effect
// in the store after a subsequent Update. Duplicate role names are never
// rejected at this layer -- uniqueness, if desired, is a matter of index
// declaration.
type RolesStore interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	// Delete removes the role document only. Users whose embedded Roles
	// reference it keep their copies; dangling references are an accepted
	// trade-off.
	Delete(ctx context.Context, role *Role) error

	// FindByID and FindByName match case-insensitively and return nil, not an
	// error, when nothing matches.
	FindByID(ctx context.Context, roleID string) (*Role, error)
	FindByName(ctx context.Context, roleName string) (*Role, error)

	GetRoleID(ctx context.Context, role *Role) (string, error)
	GetRoleName(ctx context.Context, role *Role) (string, error)
	SetRoleName(ctx context.Context, role *Role, roleName string) error
	GetNormalizedRoleName(ctx context.Context, role *Role) (string, error)
	SetNormalizedRoleName(ctx context.Context, role *Role, normalizedName string) error

	// Roles returns every role. Each call re-queries the store.
	Roles(ctx context.Context) ([]Role, error)
}
