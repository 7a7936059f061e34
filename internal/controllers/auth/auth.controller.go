package authController

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const TokenTTL = 24 * time.Hour

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthController struct {
	userRepo     repositories.UserRepository
	auditService *services.AuditService
	db           database.DB
	Config       config.Config
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

type AuthControllerInterface interface {
	Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) AuthControllerInterface {
	return &AuthController{
		userRepo:     repos.User,
		auditService: services.Audit,
		db:           db,
		Config:       config,
	}
}

// Login checks the password and issues a signed session token. Failed
// attempts return the same error whether the user exists or not.
func (c *AuthController) Login(
	ctx context.Context,
	request *LoginRequest,
) (*LoginResponse, error) {
	log := logger.New("authController").Function("Login")

	if request.Username == "" || request.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := c.userRepo.GetByUsername(ctx, request.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(request.Password),
	); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(c.Config.AuthTokenSecret))
	if err != nil {
		return nil, log.Err("failed to sign session token", err, "userID", user.ID)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := c.userRepo.Update(ctx, user); err != nil {
		log.Warn("failed to stamp last login", "userID", user.ID, "error", err)
	}

	c.auditService.RecordBestEffort(ctx, user.ID, AuditLogin, "User", user.ID.String(),
		fmt.Sprintf("user %s logged in", user.Username))

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToProfile(),
	}, nil
}

// HashPassword is used by seeding and user administration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
