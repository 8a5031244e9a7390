package mongodb

import (
	"context"
	"testing"

	"github.com/mongident/mongident/identity"
	"github.com/mongident/mongident/meta"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRolesStoreCreate(t *testing.T) {
	var saved *identity.Role
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{
			SaveFn: func(_ context.Context, role identity.Role) error {
				saved = &role
				return nil
			},
		},
	}

	err := s.Create(canceledContext(), identity.NewRole("Admin"))
	require.Equal(t, context.Canceled, err)
	require.Nil(t, saved)

	err = s.Create(context.Background(), nil)
	require.IsType(t, &meta.ErrBadRequest{}, err)
	require.Nil(t, saved)

	role := identity.NewRole("Admin")
	require.NoError(t, s.Create(context.Background(), role))
	require.NotNil(t, saved)
	require.Equal(t, role.ID, saved.ID)
}

func TestRolesStoreDelete(t *testing.T) {
	var deleted bool
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{
			DeleteFn: func(context.Context, identity.Role) error {
				deleted = true
				return nil
			},
		},
	}

	err := s.Delete(context.Background(), nil)
	require.IsType(t, &meta.ErrBadRequest{}, err)
	require.False(t, deleted)

	require.NoError(t, s.Delete(context.Background(), identity.NewRole("Admin")))
	require.True(t, deleted)
}

func TestRolesStoreFindByID(t *testing.T) {
	admin := identity.NewRole("Admin")
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{
			FindOneByFn: func(
				_ context.Context,
				filter bson.M,
			) (identity.Role, bool, error) {
				require.Contains(t, filter, "_id")
				return *admin, true, nil
			},
		},
	}

	_, err := s.FindByID(context.Background(), " ")
	require.IsType(t, &meta.ErrBadRequest{}, err)

	role, err := s.FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	require.Equal(t, admin.ID, role.ID)
}

func TestRolesStoreFindByNameNotFound(t *testing.T) {
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{},
	}
	role, err := s.FindByName(context.Background(), "NoSuchRole")
	require.NoError(t, err)
	require.Nil(t, role)
}

func TestRolesStoreAccessorsDoNotPersist(t *testing.T) {
	var saves int
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{
			SaveFn: func(context.Context, identity.Role) error {
				saves++
				return nil
			},
			UpdateFn: func(context.Context, identity.Role) error {
				saves++
				return nil
			},
		},
	}
	ctx := context.Background()
	role := identity.NewRole("Admin")

	require.NoError(t, s.SetRoleName(ctx, role, "Operator"))
	name, err := s.GetRoleName(ctx, role)
	require.NoError(t, err)
	require.Equal(t, "Operator", name)

	require.NoError(t, s.SetNormalizedRoleName(ctx, role, "OPERATOR"))
	name, err = s.GetNormalizedRoleName(ctx, role)
	require.NoError(t, err)
	require.Equal(t, "OPERATOR", name)

	id, err := s.GetRoleID(ctx, role)
	require.NoError(t, err)
	require.Equal(t, role.ID, id)

	require.Zero(t, saves)
}

func TestRolesStoreRoles(t *testing.T) {
	s := &rolesStore{
		roles: &fakeRepository[identity.Role]{
			FindAllFn: func(context.Context) ([]identity.Role, error) {
				return []identity.Role{
					*identity.NewRole("Admin"),
					*identity.NewRole("Operator"),
				}, nil
			},
		},
	}
	roles, err := s.Roles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
}
