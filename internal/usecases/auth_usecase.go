package usecases

import (
	"context"
	"fmt"
	"time"

	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"
	"geoassist/internal/interfaces"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AuthUsecase handles registration, credential checks and session issuing.
// Passwords are bcrypt-hashed at this boundary; the store never sees plaintext.
type AuthUsecase struct {
	store     interfaces.AccountStore
	sessions  *infrastructure.SessionManager
	jwtSecret []byte
	log       zerolog.Logger
}

func NewAuthUsecase(store interfaces.AccountStore, sessions *infrastructure.SessionManager, secret string, log zerolog.Logger) *AuthUsecase {
	return &AuthUsecase{
		store:     store,
		sessions:  sessions,
		jwtSecret: []byte(secret),
		log:       log,
	}
}

// Register creates an account with zero usage and no payment recorded.
func (uc *AuthUsecase) Register(ctx context.Context, username, password string) (int, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	id, err := uc.store.Create(ctx, username, string(hashed), "user")
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("username", username).Int("user_id", id).Msg("user registered")
	return id, nil
}

// Authenticate returns the account on a credential match, ErrAuthenticationFailed otherwise.
func (uc *AuthUsecase) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := uc.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entities.ErrAuthenticationFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, entities.ErrAuthenticationFailed
	}
	return user, nil
}

// Login authenticates and opens a session. The returned JWT carries the
// session id; session state itself stays server-side.
func (uc *AuthUsecase) Login(ctx context.Context, username, password string) (string, *infrastructure.Session, error) {
	user, err := uc.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	session := uc.sessions.Create("", user.ID, user.Username, user.PaymentDone)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"sid":      session.ID,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %v", err)
	}

	uc.log.Info().Str("username", username).Str("sid", session.ID).Msg("login")
	return tokenString, session, nil
}

// UpdateUser rewrites username and password for an account (administrative).
func (uc *AuthUsecase) UpdateUser(ctx context.Context, id int, username, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.store.Update(ctx, id, username, string(hashed))
}

// EnsureAdmin creates a root user if none exists (called on startup).
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, username, password string) error {
	user, err := uc.store.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = uc.store.Create(ctx, username, string(hashed), "admin")
	return err
}
