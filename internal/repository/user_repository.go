package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/store"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UsersTable is the backing table name for user accounts
const UsersTable = "users"

// userHeaders is the fixed header schema of the users table, matching the
// spreadsheet layout of the original deployment
var userHeaders = []string{"id", "role", "username", "password_hash", "display_name", "class"}

// UserRepository handles user persistence over the record store
type UserRepository struct {
	store store.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// Init ensures the backing table exists with the expected schema
func (r *UserRepository) Init(ctx context.Context) error {
	return r.store.EnsureTable(ctx, UsersTable, userHeaders)
}

// Create appends a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.store.Append(ctx, UsersTable, userToRecord(user)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetAll returns every user in insertion order
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	recs, err := r.store.ReadAll(ctx, UsersTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, recordToUser(rec))
	}
	return users, nil
}

// GetByUsername finds a user by case-insensitive, trimmed username match
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	want := normalizeUsername(username)
	for i := range users {
		if normalizeUsername(users[i].Username) == want {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// GetByID finds a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// Update upserts the user's row by id
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	err := r.store.UpdateByID(ctx, UsersTable, user.ID, userToRecord(user))
	if errors.Is(err, store.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// normalizeUsername is the comparison key for the uniqueness invariant
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func userToRecord(u *models.User) store.Record {
	return store.Record{
		"id":            u.ID,
		"role":          string(u.Role),
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"display_name":  u.DisplayName,
		"class":         u.Class,
	}
}

func recordToUser(rec store.Record) models.User {
	return models.User{
		ID:           rec["id"],
		Role:         models.Role(rec["role"]),
		Username:     rec["username"],
		PasswordHash: rec["password_hash"],
		DisplayName:  rec["display_name"],
		Class:        rec["class"],
	}
}
