package identity

import uuid "github.com/satori/go.uuid"

// Role is an independently persisted document. Users reference roles by
// embedding whole copies of them; see User.Roles.
type Role struct {
	// ID is an opaque key generated at creation and immutable thereafter.
	ID string `json:"id" bson:"_id"`

	// ConcurrencyStamp is an opaque token for caller-side optimistic
	// concurrency; the store never reads or compares it.
	ConcurrencyStamp string `json:"concurrencyStamp" bson:"concurrencyStamp"`

	Name           string `json:"name" bson:"name"`
	NormalizedName string `json:"normalizedName" bson:"normalizedName"`

	Claims []Claim `json:"claims,omitempty" bson:"claims,omitempty"`
}

// NewRole returns a new Role with a freshly minted ID and concurrency stamp.
func NewRole(name string) *Role {
	return &Role{
		ID:               uuid.NewV4().String(),
		ConcurrencyStamp: uuid.NewV4().String(),
		Name:             name,
	}
}

// DocumentID returns the key this document is stored under.
func (r Role) DocumentID() string {
	return r.ID
}
