package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user := NewUser("alice")
	require.Equal(t, "alice", user.UserName)
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, user.ConcurrencyStamp)
	require.NotEmpty(t, user.SecurityStamp)
	require.Equal(t, user.ID, user.DocumentID())

	other := NewUser("alice")
	require.NotEqual(t, user.ID, other.ID)
}

func TestNewRole(t *testing.T) {
	role := NewRole("Admin")
	require.Equal(t, "Admin", role.Name)
	require.NotEmpty(t, role.ID)
	require.NotEmpty(t, role.ConcurrencyStamp)
	require.Equal(t, role.ID, role.DocumentID())

	other := NewRole("Admin")
	require.NotEqual(t, role.ID, other.ID)
}

func TestNewUserToken(t *testing.T) {
	token := NewUserToken("user-id", "github", "refresh", "abc")
	require.NotEmpty(t, token.ID)
	require.Equal(t, "user-id", token.UserID)
	require.Equal(t, "github", token.LoginProvider)
	require.Equal(t, "refresh", token.Name)
	require.Equal(t, "abc", token.Value)
	require.Equal(t, token.ID, token.DocumentID())
}
