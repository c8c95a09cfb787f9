package auth

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
)

// Initial accounts written to the store the first time the user list is
// empty. After seeding, the store is the system of record.
//
//go:embed users.json
var seedUsers []byte

// Local is the offline identity provider. It keeps its user list in the
// session store and issues opaque tokens without any network dependency.
// Passwords are stored in clear: this is a demo simulator, not an
// authentication system.
type Local struct {
	store *session.Store
}

// NewLocal creates the local identity provider.
func NewLocal(store *session.Store) *Local {
	return &Local{store: store}
}

// users returns the persisted list, seeding it first if the slot is empty.
func (l *Local) users() ([]model.User, error) {
	if u := l.store.Users(); u != nil {
		return u, nil
	}

	var seed []model.User
	if err := json.Unmarshal(seedUsers, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed users: %w", err)
	}
	if err := l.store.SetUsers(seed); err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	logger.Info("Seeded local user list", logger.F("count", len(seed)))
	return seed, nil
}

// newToken mints an opaque session token. It embeds the user id and the
// current time so two sessions never share a token; no component may parse
// it back.
func newToken(userID int64) string {
	return fmt.Sprintf("local-%d-%d-%s", userID, time.Now().UnixNano(), uuid.NewString()[:8])
}

// Register implements Provider. The new id is max(existing)+1, or 1 for an
// empty list. On any failure the user list and session are left untouched.
func (l *Local) Register(ctx context.Context, reg Registration) (*Session, error) {
	users, err := l.users()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if strings.EqualFold(u.Username, reg.Username) {
			return nil, model.ErrDuplicateIdentity
		}
		if u.Email != "" && reg.Email != "" && strings.EqualFold(u.Email, reg.Email) {
			return nil, model.ErrDuplicateIdentity
		}
	}

	var maxID int64
	for _, u := range users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	user := model.User{
		ID:        maxID + 1,
		Username:  reg.Username,
		Email:     reg.Email,
		Name:      reg.Name,
		Password:  reg.Password,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}

	if err := l.store.SetUsers(append(users, user)); err != nil {
		return nil, fmt.Errorf("failed to persist users: %w", err)
	}

	token := newToken(user.ID)
	if err := l.store.SetSession(token, &user); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	logger.Info("Registered local user", logger.F("id", user.ID), logger.F("username", user.Username))
	return &Session{Token: token, User: user}, nil
}

// Login implements Provider. The identifier matches username or email
// case-insensitively; the password must match exactly. Failure leaves the
// session store untouched.
func (l *Local) Login(ctx context.Context, usernameOrEmail, password string) (*Session, error) {
	users, err := l.users()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		match := strings.EqualFold(u.Username, usernameOrEmail) ||
			(u.Email != "" && strings.EqualFold(u.Email, usernameOrEmail))
		if match && u.Password == password {
			token := newToken(u.ID)
			if err := l.store.SetSession(token, &u); err != nil {
				return nil, fmt.Errorf("failed to establish session: %w", err)
			}
			logger.Info("Local login", logger.F("id", u.ID), logger.F("username", u.Username))
			return &Session{Token: token, User: u}, nil
		}
	}

	return nil, model.ErrInvalidCredentials
}

// Logout implements Provider. It clears the token and current-user snapshot
// together and does not touch the persisted user list.
func (l *Local) Logout(ctx context.Context) error {
	return l.store.ClearSession()
}

// CurrentUser implements Provider.
func (l *Local) CurrentUser() *model.User {
	return l.store.CurrentUser()
}
