package identity

import uuid "github.com/satori/go.uuid"

// UserToken is a per-provider authentication token, persisted as its own
// document so a token's value can be set or cleared without rewriting the
// owning user document. At most one document exists per
// (UserID, LoginProvider, Name) triple.
//
// UserID is a weak back-reference used for lookup only; token documents are
// not cascade-deleted when their owning user is deleted.
type UserToken struct {
	ID            string `json:"id" bson:"_id"`
	UserID        string `json:"userId" bson:"userID"`
	LoginProvider string `json:"loginProvider" bson:"loginProvider"`
	Name          string `json:"name" bson:"name"`
	Value         string `json:"value" bson:"value"`
}

// NewUserToken returns a new UserToken for the given triple.
func NewUserToken(userID, loginProvider, name, value string) *UserToken {
	return &UserToken{
		ID:            uuid.NewV4().String(),
		UserID:        userID,
		LoginProvider: loginProvider,
		Name:          name,
		Value:         value,
	}
}

// DocumentID returns the key this document is stored under.
func (t UserToken) DocumentID() string {
	return t.ID
}
