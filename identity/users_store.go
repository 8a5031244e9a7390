package identity

import (
	"context"
	"time"
)

// The narrow capability interfaces below segregate the aggregate UsersStore
// contract into the groups the external authentication framework consumes.
// One store type satisfies all of them structurally.
//
// Unless noted otherwise, methods that take a *User mutate the in-memory
// object only; persistence requires a separate call to Update. Getter/setter
// pairs round-trip immediately on the in-memory object, independent of
// persistence.

// UserLoginStore manages a user's embedded external-provider logins.
type UserLoginStore interface {
	AddLogin(ctx context.Context, user *User, login Login) error
	RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error
	GetLogins(ctx context.Context, user *User) ([]Login, error)
	// FindByLogin scans for a user holding a matching embedded login and
	// returns the first match, or nil if no user matches.
	FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error)
}

// UserRoleStore manages a user's role memberships. Memberships embed whole
// Role documents; membership tests and removals compare role names
// case-insensitively against the embedded copies.
type UserRoleStore interface {
	// AddToRole appends the named role document to the user's embedded Roles.
	// The role must already exist; if it does not, AddToRole fails with
	// *meta.ErrNotFound and the user is not mutated.
	AddToRole(ctx context.Context, user *User, roleName string) error
	RemoveFromRole(ctx context.Context, user *User, roleName string) error
	GetRoles(ctx context.Context, user *User) ([]string, error)
	IsInRole(ctx context.Context, user *User, roleName string) (bool, error)
	GetUsersInRole(ctx context.Context, roleName string) ([]User, error)
}

// UserClaimStore manages a user's embedded claims.
type UserClaimStore interface {
	AddClaims(ctx context.Context, user *User, claims []Claim) error
	RemoveClaims(ctx context.Context, user *User, claims []Claim) error
	// ReplaceClaim updates every embedded claim matching the old (type, value)
	// pair, not just the first.
	ReplaceClaim(ctx context.Context, user *User, claim, newClaim Claim) error
	GetClaims(ctx context.Context, user *User) ([]Claim, error)
	GetUsersForClaim(ctx context.Context, claim Claim) ([]User, error)
}

// UserPasswordStore manages the presence and value of a user's password hash.
type UserPasswordStore interface {
	GetPasswordHash(ctx context.Context, user *User) (string, error)
	SetPasswordHash(ctx context.Context, user *User, passwordHash string) error
	HasPassword(ctx context.Context, user *User) (bool, error)
}

// UserSecurityStampStore manages a user's security stamp.
type UserSecurityStampStore interface {
	GetSecurityStamp(ctx context.Context, user *User) (string, error)
	SetSecurityStamp(ctx context.Context, user *User, stamp string) error
}

// UserEmailStore manages a user's email fields and email-based lookup.
type UserEmailStore interface {
	GetEmail(ctx context.Context, user *User) (string, error)
	SetEmail(ctx context.Context, user *User, email string) error
	GetEmailConfirmed(ctx context.Context, user *User) (bool, error)
	SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error
	GetNormalizedEmail(ctx context.Context, user *User) (string, error)
	SetNormalizedEmail(ctx context.Context, user *User, normalizedEmail string) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*User, error)
}

// UserLockoutStore manages lockout state and access-failure counting.
type UserLockoutStore interface {
	GetLockoutEnabled(ctx context.Context, user *User) (bool, error)
	SetLockoutEnabled(ctx context.Context, user *User, enabled bool) error
	GetLockoutEnd(ctx context.Context, user *User) (*time.Time, error)
	SetLockoutEnd(ctx context.Context, user *User, lockoutEnd *time.Time) error
	// IncrementAccessFailedCount increments the in-memory count and returns
	// the new value. Like every other mutator, it does not persist.
	IncrementAccessFailedCount(ctx context.Context, user *User) (int, error)
	ResetAccessFailedCount(ctx context.Context, user *User) error
	GetAccessFailedCount(ctx context.Context, user *User) (int, error)
}

// UserPhoneNumberStore manages a user's phone number fields.
type UserPhoneNumberStore interface {
	GetPhoneNumber(ctx context.Context, user *User) (string, error)
	SetPhoneNumber(ctx context.Context, user *User, phoneNumber string) error
	GetPhoneNumberConfirmed(ctx context.Context, user *User) (bool, error)
	SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error
}

// UserTwoFactorStore manages a user's two-factor flag.
type UserTwoFactorStore interface {
	GetTwoFactorEnabled(ctx context.Context, user *User) (bool, error)
	SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error
}

// UserTokenStore manages per-provider authentication tokens. Unlike the other
// capability groups, token operations persist immediately and independently
// of the owning user document.
type UserTokenStore interface {
	SetToken(ctx context.Context, user *User, loginProvider, name, value string) error
	// GetToken returns the empty string, not an error, when no matching token
	// document exists; callers must treat empty as absent.
	GetToken(ctx context.Context, user *User, loginProvider, name string) (string, error)
	RemoveToken(ctx context.Context, user *User, loginProvider, name string) error
}

// QueryableUserStore exposes the whole user collection. Each call re-queries
// the store; nothing is cached.
type QueryableUserStore interface {
	Users(ctx context.Context) ([]User, error)
}

// UsersStore is the aggregate user persistence contract consumed by the
// external authentication framework.
type UsersStore interface {
	UserLoginStore
	UserRoleStore
	UserClaimStore
	UserPasswordStore
	UserSecurityStampStore
	UserEmailStore
	UserLockoutStore
	UserPhoneNumberStore
	UserTwoFactorStore
	UserTokenStore
	QueryableUserStore

	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, user *User) error

	// FindByID and FindByName match case-insensitively and return nil, not an
	// error, when nothing matches.
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByName(ctx context.Context, normalizedUserName string) (*User, error)

	GetUserID(ctx context.Context, user *User) (string, error)
	GetUserName(ctx context.Context, user *User) (string, error)
	SetUserName(ctx context.Context, user *User, userName string) error
	GetNormalizedUserName(ctx context.Context, user *User) (string, error)
	SetNormalizedUserName(ctx context.Context, user *User, normalizedName string) error
}
