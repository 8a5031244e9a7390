package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/mongident/mongident/identity"
	"github.com/mongident/mongident/meta"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const createIndexTimeout = 5 * time.Second

// UsersStoreOptions bundles the index policy a users store is constructed
// with.
type UsersStoreOptions struct {
	// RequireUniqueEmail adds a unique index on the normalized email field.
	RequireUniqueEmail bool
}

type usersStore struct {
	users  identity.Repository[identity.User]
	roles  identity.Repository[identity.Role]
	tokens identity.Repository[identity.UserToken]
}

// NewUsersStore returns a MongoDB-backed identity.UsersStore. Unique indexes
// are declared up front: the normalized user name always, the normalized
// email when the options require it, and the (user, provider, name) token
// triple.
func NewUsersStore(
	database *mongo.Database,
	opts UsersStoreOptions,
) (identity.UsersStore, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	usersCollection := database.Collection("users")
	if _, err := usersCollection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.M{
				"normalizedUserName": 1,
			},
			Options: &options.IndexOptions{
				Unique: &unique,
			},
		},
	); err != nil {
		return nil, errors.Wrap(err, "error adding indexes to users collection")
	}
	if opts.RequireUniqueEmail {
		if _, err := usersCollection.Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.M{
					"normalizedEmail": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
				},
			},
		); err != nil {
			return nil, errors.Wrap(
				err,
				"error adding indexes to users collection",
			)
		}
	}
	tokensCollection := database.Collection("user-tokens")
	if _, err := tokensCollection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "userID", Value: 1},
				{Key: "loginProvider", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: &options.IndexOptions{
				Unique: &unique,
			},
		},
	); err != nil {
		return nil, errors.Wrap(
			err,
			"error adding indexes to user-tokens collection",
		)
	}
	return &usersStore{
		users:  newRepository[identity.User]("User", usersCollection),
		roles:  newRepository[identity.Role]("Role", database.Collection("roles")),
		tokens: newRepository[identity.UserToken]("UserToken", tokensCollection),
	}, nil
}

func (s *usersStore) Create(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return s.users.Save(ctx, *user)
}

func (s *usersStore) Update(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return s.users.Update(ctx, *user)
}

// Delete removes the user document. Token documents referencing the user are
// deliberately left behind; see identity.UserToken.
func (s *usersStore) Delete(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return s.users.Delete(ctx, *user)
}

func (s *usersStore) FindByID(
	ctx context.Context,
	userID string,
) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, &meta.ErrBadRequest{Reason: "userID must not be empty"}
	}
	user, found, err := s.users.FindOneBy(ctx, bson.M{"_id": foldEq(userID)})
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *usersStore) FindByName(
	ctx context.Context,
	normalizedUserName string,
) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(normalizedUserName) == "" {
		return nil, &meta.ErrBadRequest{
			Reason: "normalizedUserName must not be empty",
		}
	}
	user, found, err := s.users.FindOneBy(
		ctx,
		bson.M{"normalizedUserName": foldEq(normalizedUserName)},
	)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *usersStore) FindByEmail(
	ctx context.Context,
	normalizedEmail string,
) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(normalizedEmail) == "" {
		return nil, &meta.ErrBadRequest{
			Reason: "normalizedEmail must not be empty",
		}
	}
	user, found, err := s.users.FindOneBy(
		ctx,
		bson.M{"normalizedEmail": foldEq(normalizedEmail)},
	)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *usersStore) Users(ctx context.Context) ([]identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.users.FindAll(ctx)
}

func (s *usersStore) GetUserID(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.ID, nil
}

func (s *usersStore) GetUserName(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.UserName, nil
}

func (s *usersStore) SetUserName(
	ctx context.Context,
	user *identity.User,
	userName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.UserName = userName
	return nil
}

func (s *usersStore) GetNormalizedUserName(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.NormalizedUserName, nil
}

func (s *usersStore) SetNormalizedUserName(
	ctx context.Context,
	user *identity.User,
	normalizedName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.NormalizedUserName = normalizedName
	return nil
}

func (s *usersStore) AddLogin(
	ctx context.Context,
	user *identity.User,
	login identity.Login,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.Logins = append(user.Logins, login)
	return nil
}

func (s *usersStore) RemoveLogin(
	ctx context.Context,
	user *identity.User,
	loginProvider, providerKey string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	for i, login := range user.Logins {
		if login.Provider == loginProvider && login.ProviderKey == providerKey {
			user.Logins = append(user.Logins[:i], user.Logins[i+1:]...)
			break
		}
	}
	return nil
}

func (s *usersStore) GetLogins(
	ctx context.Context,
	user *identity.User,
) ([]identity.Login, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	logins := make([]identity.Login, len(user.Logins))
	copy(logins, user.Logins)
	return logins, nil
}

func (s *usersStore) FindByLogin(
	ctx context.Context,
	loginProvider, providerKey string,
) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users, err := s.users.FindAllBy(
		ctx,
		bson.M{
			"logins": bson.M{
				"$elemMatch": bson.M{
					"loginProvider": loginProvider,
					"providerKey":   providerKey,
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *usersStore) AddToRole(
	ctx context.Context,
	user *identity.User,
	roleName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	if strings.TrimSpace(roleName) == "" {
		return &meta.ErrBadRequest{Reason: "roleName must not be empty"}
	}
	role, found, err := s.roles.FindOneBy(ctx, bson.M{"name": foldEq(roleName)})
	if err != nil {
		return err
	}
	if !found {
		return &meta.ErrNotFound{
			Type: "Role",
			ID:   roleName,
		}
	}
	user.Roles = append(user.Roles, role)
	return nil
}

func (s *usersStore) RemoveFromRole(
	ctx context.Context,
	user *identity.User,
	roleName string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	if strings.TrimSpace(roleName) == "" {
		return &meta.ErrBadRequest{Reason: "roleName must not be empty"}
	}
	remaining := user.Roles[:0]
	for _, role := range user.Roles {
		if !strings.EqualFold(role.Name, roleName) {
			remaining = append(remaining, role)
		}
	}
	user.Roles = remaining
	return nil
}

func (s *usersStore) GetRoles(
	ctx context.Context,
	user *identity.User,
) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	names := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		names[i] = role.Name
	}
	return names, nil
}

func (s *usersStore) IsInRole(
	ctx context.Context,
	user *identity.User,
	roleName string,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	if strings.TrimSpace(roleName) == "" {
		return false, &meta.ErrBadRequest{Reason: "roleName must not be empty"}
	}
	for _, role := range user.Roles {
		if strings.EqualFold(role.Name, roleName) {
			return true, nil
		}
	}
	return false, nil
}

func (s *usersStore) GetUsersInRole(
	ctx context.Context,
	roleName string,
) ([]identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(roleName) == "" {
		return nil, &meta.ErrBadRequest{Reason: "roleName must not be empty"}
	}
	return s.users.FindAllBy(
		ctx,
		bson.M{
			"roles": bson.M{
				"$elemMatch": bson.M{
					"name": foldEq(roleName),
				},
			},
		},
	)
}

func (s *usersStore) AddClaims(
	ctx context.Context,
	user *identity.User,
	claims []identity.Claim,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	if claims == nil {
		return &meta.ErrBadRequest{Reason: "claims must not be nil"}
	}
	user.Claims = append(user.Claims, claims...)
	return nil
}

// RemoveClaims removes, for each given claim, the first embedded claim with a
// matching (type, value) pair.
func (s *usersStore) RemoveClaims(
	ctx context.Context,
	user *identity.User,
	claims []identity.Claim,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	if claims == nil {
		return &meta.ErrBadRequest{Reason: "claims must not be nil"}
	}
	for _, claim := range claims {
		for i, existing := range user.Claims {
			if existing.Type == claim.Type && existing.Value == claim.Value {
				user.Claims = append(user.Claims[:i], user.Claims[i+1:]...)
				break
			}
		}
	}
	return nil
}

// ReplaceClaim is a bulk update: every embedded claim matching the old
// (type, value) pair is rewritten, not just the first.
func (s *usersStore) ReplaceClaim(
	ctx context.Context,
	user *identity.User,
	claim, newClaim identity.Claim,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	for i, existing := range user.Claims {
		if existing.Type == claim.Type && existing.Value == claim.Value {
			user.Claims[i] = newClaim
		}
	}
	return nil
}

func (s *usersStore) GetClaims(
	ctx context.Context,
	user *identity.User,
) ([]identity.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	claims := make([]identity.Claim, len(user.Claims))
	copy(claims, user.Claims)
	return claims, nil
}

func (s *usersStore) GetUsersForClaim(
	ctx context.Context,
	claim identity.Claim,
) ([]identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.users.FindAllBy(
		ctx,
		bson.M{
			"claims": bson.M{
				"$elemMatch": bson.M{
					"type":  claim.Type,
					"value": claim.Value,
				},
			},
		},
	)
}

func (s *usersStore) GetPasswordHash(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.PasswordHash, nil
}

func (s *usersStore) SetPasswordHash(
	ctx context.Context,
	user *identity.User,
	passwordHash string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *usersStore) HasPassword(
	ctx context.Context,
	user *identity.User,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.PasswordHash != "", nil
}

func (s *usersStore) GetSecurityStamp(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.SecurityStamp, nil
}

func (s *usersStore) SetSecurityStamp(
	ctx context.Context,
	user *identity.User,
	stamp string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.SecurityStamp = stamp
	return nil
}

func (s *usersStore) GetEmail(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.Email, nil
}

func (s *usersStore) SetEmail(
	ctx context.Context,
	user *identity.User,
	email string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.Email = email
	return nil
}

func (s *usersStore) GetEmailConfirmed(
	ctx context.Context,
	user *identity.User,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.EmailConfirmed, nil
}

func (s *usersStore) SetEmailConfirmed(
	ctx context.Context,
	user *identity.User,
	confirmed bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.EmailConfirmed = confirmed
	return nil
}

func (s *usersStore) GetNormalizedEmail(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.NormalizedEmail, nil
}

func (s *usersStore) SetNormalizedEmail(
	ctx context.Context,
	user *identity.User,
	normalizedEmail string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.NormalizedEmail = normalizedEmail
	return nil
}

func (s *usersStore) GetLockoutEnabled(
	ctx context.Context,
	user *identity.User,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.LockoutEnabled, nil
}

func (s *usersStore) SetLockoutEnabled(
	ctx context.Context,
	user *identity.User,
	enabled bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.LockoutEnabled = enabled
	return nil
}

func (s *usersStore) GetLockoutEnd(
	ctx context.Context,
	user *identity.User,
) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.LockoutEnd, nil
}

func (s *usersStore) SetLockoutEnd(
	ctx context.Context,
	user *identity.User,
	lockoutEnd *time.Time,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.LockoutEnd = lockoutEnd
	return nil
}

func (s *usersStore) IncrementAccessFailedCount(
	ctx context.Context,
	user *identity.User,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if user == nil {
		return 0, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.AccessFailedCount++
	return user.AccessFailedCount, nil
}

func (s *usersStore) ResetAccessFailedCount(
	ctx context.Context,
	user *identity.User,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.AccessFailedCount = 0
	return nil
}

func (s *usersStore) GetAccessFailedCount(
	ctx context.Context,
	user *identity.User,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if user == nil {
		return 0, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.AccessFailedCount, nil
}

func (s *usersStore) GetPhoneNumber(
	ctx context.Context,
	user *identity.User,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.PhoneNumber, nil
}

func (s *usersStore) SetPhoneNumber(
	ctx context.Context,
	user *identity.User,
	phoneNumber string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.PhoneNumber = phoneNumber
	return nil
}

func (s *usersStore) GetPhoneNumberConfirmed(
	ctx context.Context,
	user *identity.User,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.PhoneNumberConfirmed, nil
}

func (s *usersStore) SetPhoneNumberConfirmed(
	ctx context.Context,
	user *identity.User,
	confirmed bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.PhoneNumberConfirmed = confirmed
	return nil
}

func (s *usersStore) GetTwoFactorEnabled(
	ctx context.Context,
	user *identity.User,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil {
		return false, &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	return user.TwoFactorEnabled, nil
}

func (s *usersStore) SetTwoFactorEnabled(
	ctx context.Context,
	user *identity.User,
	enabled bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	user.TwoFactorEnabled = enabled
	return nil
}

// SetToken persists immediately: the matching token document's value is
// replaced, or a new document is created if none exists for the triple.
func (s *usersStore) SetToken(
	ctx context.Context,
	user *identity.User,
	loginProvider, name, value string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	token, found, err := s.tokens.FindOneBy(
		ctx,
		tokenFilter(user.ID, loginProvider, name),
	)
	if err != nil {
		return err
	}
	if found {
		token.Value = value
		return s.tokens.Update(ctx, token)
	}
	return s.tokens.Save(
		ctx,
		*identity.NewUserToken(user.ID, loginProvider, name, value),
	)
}

// GetToken returns the empty string when no token document matches the
// triple; callers must treat empty as absent.
func (s *usersStore) GetToken(
	ctx context.Context,
	user *identity.User,
	loginProvider, name string,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if user == nil {
		return "", &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	token, found, err := s.tokens.FindOneBy(
		ctx,
		tokenFilter(user.ID, loginProvider, name),
	)
	if err != nil || !found {
		return "", err
	}
	return token.Value, nil
}

func (s *usersStore) RemoveToken(
	ctx context.Context,
	user *identity.User,
	loginProvider, name string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return &meta.ErrBadRequest{Reason: "user must not be nil"}
	}
	token, found, err := s.tokens.FindOneBy(
		ctx,
		tokenFilter(user.ID, loginProvider, name),
	)
	if err != nil || !found {
		return err
	}
	return s.tokens.Delete(ctx, token)
}

func tokenFilter(userID, loginProvider, name string) bson.M {
	return bson.M{
		"userID":        userID,
		"loginProvider": loginProvider,
		"name":          name,
	}
}
