package identity

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// Claim represents a single (type, value) pair asserted about a user or role.
// Claims have no independent identity and no uniqueness constraint; the same
// pair may appear more than once.
type Claim struct {
	Type  string `json:"type" bson:"type"`
	Value string `json:"value" bson:"value"`
}

// Login represents an association between a user and an external login
// provider. Uniqueness of (Provider, ProviderKey) across the whole system is
// a caller obligation, not enforced by the store.
type Login struct {
	// Provider identifies the external login provider.
	Provider string `json:"loginProvider" bson:"loginProvider"`
	// ProviderKey is the key this user is known by at the provider.
	ProviderKey string `json:"providerKey" bson:"providerKey"`
	// DisplayName is a human-friendly name for the provider.
	DisplayName string `json:"providerDisplayName" bson:"providerDisplayName"`
}

// User is the aggregate root of the identity model, persisted as a single
// document. Claims, Logins, and Roles are embedded collections owned by the
// document; Roles holds whole embedded copies of Role documents the user is a
// member of.
type User struct {
	// ID is an opaque key generated at creation and immutable thereafter.
	ID string `json:"id" bson:"_id"`

	// ConcurrencyStamp is an opaque token regenerated whenever mutable fields
	// change. It exists for optimistic-concurrency detection by the caller;
	// the store itself never reads or compares it.
	ConcurrencyStamp string `json:"concurrencyStamp" bson:"concurrencyStamp"`

	// UserName is the user's display name; NormalizedUserName is the
	// case-folded copy maintained by the caller's normalizer and subject to a
	// unique index.
	UserName           string `json:"userName" bson:"userName"`
	NormalizedUserName string `json:"normalizedUserName" bson:"normalizedUserName"`

	Email           string `json:"email" bson:"email"`
	NormalizedEmail string `json:"normalizedEmail" bson:"normalizedEmail"`
	EmailConfirmed  bool   `json:"emailConfirmed" bson:"emailConfirmed"`

	// PasswordHash is the framework-produced hash; empty means the user has no
	// password.
	PasswordHash string `json:"-" bson:"passwordHash"`

	PhoneNumber          string `json:"phoneNumber" bson:"phoneNumber"`
	PhoneNumberConfirmed bool   `json:"phoneNumberConfirmed" bson:"phoneNumberConfirmed"`

	// SecurityStamp changes whenever the user's credentials change.
	SecurityStamp string `json:"securityStamp" bson:"securityStamp"`

	TwoFactorEnabled bool `json:"twoFactorEnabled" bson:"twoFactorEnabled"`

	LockoutEnabled    bool       `json:"lockoutEnabled" bson:"lockoutEnabled"`
	LockoutEnd        *time.Time `json:"lockoutEnd" bson:"lockoutEnd"`
	AccessFailedCount int        `json:"accessFailedCount" bson:"accessFailedCount"`

	Claims []Claim `json:"claims,omitempty" bson:"claims,omitempty"`
	Logins []Login `json:"logins,omitempty" bson:"logins,omitempty"`
	Roles  []Role  `json:"roles,omitempty" bson:"roles,omitempty"`
}

// NewUser returns a new User with freshly minted ID and stamps.
func NewUser(userName string) *User {
	return &User{
		ID:               uuid.NewV4().String(),
		ConcurrencyStamp: uuid.NewV4().String(),
		SecurityStamp:    uuid.NewV4().String(),
		UserName:         userName,
	}
}

// DocumentID returns the key this document is stored under.
func (u User) DocumentID() string {
	return u.ID
}
