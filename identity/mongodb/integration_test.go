package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mongident/mongident/identity"
	"github.com/mongident/mongident/meta"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// integrationDatabase connects to the MongoDB instance named by MONGODB_URI
// and hands each test its own throwaway database. Tests that need a live
// store are skipped when the variable is unset.
func integrationDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, readpref.Primary()))
	database := client.Database(
		fmt.Sprintf("identity-test-%d", time.Now().UnixNano()),
	)
	t.Cleanup(func() {
		ctx, cancel :=
			context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return database
}

func TestIntegrationRoleRoundTrip(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	s, err := NewRolesStore(database)
	require.NoError(t, err)

	role := identity.NewRole("Admin")
	role.NormalizedName = "ADMIN"
	require.NoError(t, s.Create(ctx, role))

	found, err := s.FindByID(ctx, role.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, role.ID, found.ID)
	require.Equal(t, "Admin", found.Name)

	require.NoError(t, s.SetRoleName(ctx, found, "Operator"))
	require.NoError(t, s.Update(ctx, found))
	found, err = s.FindByName(ctx, "Operator")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, role.ID, found.ID)

	require.NoError(t, s.Delete(ctx, found))
	found, err = s.FindByID(ctx, role.ID)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestIntegrationRoleLookupIsCaseInsensitive(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	s, err := NewRolesStore(database)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, identity.NewRole("Role1")))

	found, err := s.FindByName(ctx, "ROLE1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Role1", found.Name)
}

func TestIntegrationFindOneBySingleOrNone(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	repo := newRepository[identity.Role]("Role", database.Collection("roles"))

	_, found, err := repo.FindOneBy(ctx, bson.M{"name": "Solo"})
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Save(ctx, *identity.NewRole("Solo")))
	role, found, err := repo.FindOneBy(ctx, bson.M{"name": "Solo"})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Solo", role.Name)

	require.NoError(t, repo.Save(ctx, *identity.NewRole("Solo")))
	_, _, err = repo.FindOneBy(ctx, bson.M{"name": "Solo"})
	require.Error(t, err)
	require.IsType(t, &meta.ErrAmbiguousResult{}, err)
}

func TestIntegrationUserRoleScenario(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	rolesStore, err := NewRolesStore(database)
	require.NoError(t, err)
	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	require.NoError(t, rolesStore.Create(ctx, identity.NewRole("Admin")))

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.Create(ctx, alice))

	require.NoError(t, usersStore.AddToRole(ctx, alice, "Admin"))
	require.NoError(t, usersStore.Update(ctx, alice))

	reloaded, err := usersStore.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	roles, err := usersStore.GetRoles(ctx, reloaded)
	require.NoError(t, err)
	require.Equal(t, []string{"Admin"}, roles)

	inRole, err := usersStore.IsInRole(ctx, reloaded, "ADMIN")
	require.NoError(t, err)
	require.True(t, inRole)

	members, err := usersStore.GetUsersInRole(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, alice.ID, members[0].ID)
}

func TestIntegrationRoleDeleteLeavesEmbeddedCopies(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	rolesStore, err := NewRolesStore(database)
	require.NoError(t, err)
	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	role := identity.NewRole("Doomed")
	require.NoError(t, rolesStore.Create(ctx, role))

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.Create(ctx, alice))
	require.NoError(t, usersStore.AddToRole(ctx, alice, "Doomed"))
	require.NoError(t, usersStore.Update(ctx, alice))

	require.NoError(t, rolesStore.Delete(ctx, role))

	// The embedded copy survives role deletion; that dangling reference is
	// the documented trade-off of embedding whole role documents.
	reloaded, err := usersStore.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	inRole, err := usersStore.IsInRole(ctx, reloaded, "Doomed")
	require.NoError(t, err)
	require.True(t, inRole)
}

func TestIntegrationUniqueUserName(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.Create(ctx, alice))

	imposter := identity.NewUser("alice")
	imposter.NormalizedUserName = "ALICE"
	err = usersStore.Create(ctx, imposter)
	require.Error(t, err)
	require.IsType(t, &meta.ErrConflict{}, err)
}

func TestIntegrationUniqueEmailWhenRequired(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	usersStore, err := NewUsersStore(
		database,
		UsersStoreOptions{RequireUniqueEmail: true},
	)
	require.NoError(t, err)

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	alice.NormalizedEmail = "ALICE@EXAMPLE.COM"
	require.NoError(t, usersStore.Create(ctx, alice))

	bob := identity.NewUser("bob")
	bob.NormalizedUserName = "BOB"
	bob.NormalizedEmail = "ALICE@EXAMPLE.COM"
	err = usersStore.Create(ctx, bob)
	require.Error(t, err)
	require.IsType(t, &meta.ErrConflict{}, err)
}

func TestIntegrationTokens(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.Create(ctx, alice))

	value, err := usersStore.GetToken(ctx, alice, "github", "refresh")
	require.NoError(t, err)
	require.Equal(t, "", value)

	require.NoError(
		t,
		usersStore.SetToken(ctx, alice, "github", "refresh", "abc"),
	)
	value, err = usersStore.GetToken(ctx, alice, "github", "refresh")
	require.NoError(t, err)
	require.Equal(t, "abc", value)

	// Setting the same triple again replaces the value in place.
	require.NoError(
		t,
		usersStore.SetToken(ctx, alice, "github", "refresh", "xyz"),
	)
	value, err = usersStore.GetToken(ctx, alice, "github", "refresh")
	require.NoError(t, err)
	require.Equal(t, "xyz", value)

	require.NoError(t, usersStore.RemoveToken(ctx, alice, "github", "refresh"))
	value, err = usersStore.GetToken(ctx, alice, "github", "refresh")
	require.NoError(t, err)
	require.Equal(t, "", value)
}

func TestIntegrationAccessFailedCountRequiresUpdate(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.Create(ctx, alice))

	for i := 0; i < 10; i++ {
		_, err := usersStore.IncrementAccessFailedCount(ctx, alice)
		require.NoError(t, err)
	}
	count, err := usersStore.GetAccessFailedCount(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 10, count)

	// No Update was called, so the increments were never persisted.
	reloaded, err := usersStore.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	count, err = usersStore.GetAccessFailedCount(ctx, reloaded)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestIntegrationFindByLogin(t *testing.T) {
	database := integrationDatabase(t)
	ctx := context.Background()

	usersStore, err := NewUsersStore(database, UsersStoreOptions{})
	require.NoError(t, err)

	alice := identity.NewUser("alice")
	alice.NormalizedUserName = "ALICE"
	require.NoError(t, usersStore.AddLogin(ctx, alice, identity.Login{
		Provider:    "github",
		ProviderKey: "alice-key",
		DisplayName: "GitHub",
	}))
	require.NoError(t, usersStore.Create(ctx, alice))

	found, err := usersStore.FindByLogin(ctx, "github", "alice-key")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, alice.ID, found.ID)

	found, err = usersStore.FindByLogin(ctx, "github", "no-such-key")
	require.NoError(t, err)
	require.Nil(t, found)
}
