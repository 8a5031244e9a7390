package mongodb

import (
	"context"
	"strings"

	"github.com/mongident/mongident/identity"
	"github.com/mongident/mongident/meta"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type rolesStore struct {
	roles identity.Repository[identity.Role]
}

// NewRolesStore returns a MongoDB-backed identity.RolesStore. No unique index
// is declared on role names; name uniqueness, if desired, is an external
// index-declaration concern.
func NewRolesStore(database *mongo.Database) (identity.RolesStore, error) {
	return &rolesStore{
		roles: newRepository[identity.Role]("Role", database.Collection("roles")),
	}, nil
}

func (s *rolesStore) Create(ctx context.Context, role *identity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return s.roles.Save(ctx, *role)
}

func (s *rolesStore) Update(ctx context.Context, role *identity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return s.roles.Update(ctx, *role)
}

// Delete removes the role document only. Users embedding a copy of the role
// keep it; there is no cascade.
func (s *rolesStore) Delete(ctx context.Context, role *identity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return s.roles.Delete(ctx, *role)
}

func (s *rolesStore) FindByID(
	ctx context.Context,
	roleID string,
) (*identity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(roleID) == "" {
		return nil, &meta.ErrBadRequest{Reason: "roleID must not be empty"}
	}
	role, found, err := s.roles.FindOneBy(ctx, bson.M{"_id": foldEq(roleID)})
	if err != nil || !found {
		return nil, err
	}
	return &role, nil
}

func (s *rolesStore) FindByName(
	ctx context.Context,
	roleName string,
) (*identity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(roleName) == "" {
		return nil, &meta.ErrBadRequest{Reason: "roleName must not be empty"}
	}
	role, found, err := s.roles.FindOneBy(ctx, bson.M{"name": foldEq(roleName)})
	if err != nil || !found {
		return nil, err
	}
	return &role, nil
}

func (s *rolesStore) GetRoleID(
	ctx context.Context,
	role *identity.Role,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if role == nil {
		return "", &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return role.ID, nil
}

func (s *rolesStore) GetRoleName(
	ctx context.Context,
	role *identity.Role,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if role == nil {
		return "", &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return role.Name, nil
}

// SetRoleName mutates the in-memory role; the change reaches the store on the
// next Update.
func (s *rolesStore) SetRoleName(
	ctx context.Context,
	role *identity.Role,
	roleName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	role.Name = roleName
	return nil
}

func (s *rolesStore) GetNormalizedRoleName(
	ctx context.Context,
	role *identity.Role,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if role == nil {
		return "", &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	return role.NormalizedName, nil
}

func (s *rolesStore) SetNormalizedRoleName(
	ctx context.Context,
	role *identity.Role,
	normalizedName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return &meta.ErrBadRequest{Reason: "role must not be nil"}
	}
	role.NormalizedName = normalizedName
	return nil
}

func (s *rolesStore) Roles(ctx context.Context) ([]identity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.roles.FindAll(ctx)
}
