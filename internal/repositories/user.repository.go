package repositories

import (
	"context"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	USER_CACHE_EXPIRY = 24 * time.Hour
	USER_CACHE_PREFIX = "user:"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, tx *gorm.DB, user *User) error
	Update(ctx context.Context, user *User) error
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	ListMechanicsRanked(ctx context.Context, specialty Specialty) ([]*User, error)
	ClearUserCache(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	if found, _ := database.NewCacheBuilder(r.db.Cache.General, USER_CACHE_PREFIX+id.String()).
		WithContext(ctx).
		Get(&user); found {
		return &user, nil
	}

	if err := r.db.SQLWithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user", err, "userID", id)
	}

	if err := r.addUserToCache(ctx, &user); err != nil {
		log.Warn("failed to add user to cache", "userID", id, "error", err)
	}

	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	log := r.log.Function("GetByUsername")

	var user User
	if err := r.db.SQLWithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, log.Err("failed to get user by username", err, "username", username)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err, "username", user.Username)
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(user).Error; err != nil {
		return log.Err("failed to update user", err, "userID", user.ID)
	}

	if err := r.ClearUserCache(ctx, user.ID); err != nil {
		log.Warn("failed to clear user cache after update", "userID", user.ID, "error", err)
	}

	return nil
}

func (r *userRepository) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	log := r.log.Function("ListByRole")

	var users []*User
	if err := r.db.SQLWithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("first_name ASC").
		Find(&users).Error; err != nil {
		return nil, log.Err("failed to list users by role", err, "role", role)
	}

	return users, nil
}

// ListMechanicsRanked returns active mechanics with the requested specialty
// first, GENERAL mechanics second, everyone else last. Ties break on first
// name so assignment pickers stay stable.
func (r *userRepository) ListMechanicsRanked(
	ctx context.Context,
	specialty Specialty,
) ([]*User, error) {
	log := r.log.Function("ListMechanicsRanked")

	var users []*User
	if err := r.db.SQLWithContext(ctx).
		Where("role = ? AND is_active = ?", RoleMechanic, true).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN specialty = ? THEN 0 WHEN specialty = ? OR specialty IS NULL THEN 1 ELSE 2 END, first_name ASC",
			Vars:               []interface{}{specialty, SpecialtyGeneral},
			WithoutParentheses: true,
		}}).
		Find(&users).Error; err != nil {
		return nil, log.Err("failed to rank mechanics", err, "specialty", specialty)
	}

	return users, nil
}

func (r *userRepository) ClearUserCache(ctx context.Context, id uuid.UUID) error {
	return database.NewCacheBuilder(r.db.Cache.General, USER_CACHE_PREFIX+id.String()).
		WithContext(ctx).
		Delete()
}

func (r *userRepository) addUserToCache(ctx context.Context, user *User) error {
	return database.NewCacheBuilder(r.db.Cache.General, USER_CACHE_PREFIX+user.ID.String()).
		WithStruct(user).
		WithTTL(USER_CACHE_EXPIRY).
		WithContext(ctx).
		Set()
}
