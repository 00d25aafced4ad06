package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/example/storefront/internal/docstore"
)

const usersPath = "users"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the stored account record. PasswordHash never leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore keeps accounts in the document store under users/{id}.
type UserStore struct {
	docs docstore.Store
}

func NewUserStore(docs docstore.Store) *UserStore {
	return &UserStore{docs: docs}
}

// Register creates an account with a bcrypt-hashed password.
func (us *UserStore) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := us.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         RoleCustomer,
		CreatedAt:    time.Now(),
	}
	id, err := us.docs.Push(ctx, usersPath, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	// Rewrite with the assigned id so lookups by id see it.
	if err := us.docs.Set(ctx, usersPath+"/"+id, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies email/password and returns the account.
func (us *UserStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := us.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the account with the given id, or nil if absent.
func (us *UserStore) Get(ctx context.Context, id string) (*User, error) {
	snap, err := us.docs.Get(ctx, usersPath+"/"+id)
	if err != nil {
		log.Printf("[Auth] Error fetching user %s: %v", id, err)
		return nil, nil
	}
	if !snap.Exists() {
		return nil, nil
	}
	var user User
	if err := snap.Decode(&user); err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

// FindByEmail scans the users collection. Linear, like the order-log query;
// fine at this system's account cardinality.
func (us *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	children, err := us.docs.List(ctx, usersPath)
	if err != nil {
		return nil, err
	}
	for id, snap := range children {
		var user User
		if err := snap.Decode(&user); err != nil {
			log.Printf("[Auth] Skipping undecodable user %s: %v", id, err)
			continue
		}
		if user.Email == email {
			user.ID = id
			return &user, nil
		}
	}
	return nil, nil
}
