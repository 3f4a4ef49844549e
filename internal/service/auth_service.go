package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// passwordAlphabet omits characters that are easy to misread on a printout.
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratedPasswordLength is the length of passwords issued by bulk import.
const GeneratedPasswordLength = 8

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Role    model.Role `json:"role"`
	UserID  uuid.UUID  `json:"user_id"`
	ClassID *uuid.UUID `json:"class_id,omitempty"` // Student only
}

// AuthService handles accounts, JWT issuing and session management.
type AuthService struct {
	cfg      *config.Config
	users    UserStore
	classes  ClassStore
	sessions SessionStore
	notifier live.Notifier
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	cfg *config.Config,
	users UserStore,
	classes ClassStore,
	sessions SessionStore,
	notifier live.Notifier,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		classes:  classes,
		sessions: sessions,
		notifier: notifier,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SignIn authenticates by email and password and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.SessionResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// SignUp creates an account and opens a session. Students join the class
// named by their join code; teachers must not present one.
func (s *AuthService) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.SessionResponse, error) {
	user := &model.User{
		Email:       normalizeEmail(req.Email),
		Role:        req.Role,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}

	switch req.Role {
	case model.RoleTeacher:
		if req.JoinCode != "" {
			return nil, ErrJoinCodeForbidden
		}
	case model.RoleStudent:
		class, err := s.classes.GetByJoinCode(ctx, strings.ToUpper(req.JoinCode))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidJoinCode
			}
			return nil, err
		}
		user.ClassID = &class.ID
		user.StudentNumber = strings.TrimSpace(req.StudentNumber)
	}

	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// CreateStudent enrolls a new student account in classID. It backs the
// roster import and does not open a session.
func (s *AuthService) CreateStudent(ctx context.Context, classID uuid.UUID, name, email, number, password string) (*model.User, error) {
	user := &model.User{
		Email:         normalizeEmail(email),
		Role:          model.RoleStudent,
		DisplayName:   strings.TrimSpace(name),
		ClassID:       &classID,
		StudentNumber: strings.TrimSpace(number),
	}
	if err := s.createUser(ctx, user, password); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTeacher creates a teacher account. It backs the create-teacher CLI.
func (s *AuthService) CreateTeacher(ctx context.Context, name, email, password string) (*model.User, error) {
	user := &model.User{
		Email:       normalizeEmail(email),
		Role:        model.RoleTeacher,
		DisplayName: strings.TrimSpace(name),
	}
	if err := s.createUser(ctx, user, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, user *model.User, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}

	if user.ClassID != nil {
		topic := config.CacheKey.ClassRosterChannel(*user.ClassID)
		if err := live.PublishAll(ctx, s.notifier, []string{topic}, live.ChangeCreated, "user", user.ID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to announce roster change")
		}
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *model.User) (*model.SessionResponse, error) {
	token, claims, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Add(ctx, user.ID, claims.ID, s.cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("Session opened")
	return &model.SessionResponse{Token: token, User: *user}, nil
}

// GenerateToken signs a JWT for user with a fresh jti.
func (s *AuthService) GenerateToken(user *model.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:    user.Role,
		UserID:  user.ID,
		ClassID: user.ClassID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's jti is still an active session.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	ok, err := s.sessions.Has(ctx, claims.UserID, claims.ID)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return ErrSessionInvalidated
	}
	return nil
}

// CurrentSession validates a raw token and its session.
func (s *AuthService) CurrentSession(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateSession(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignOut ends the session identified by claims.
func (s *AuthService) SignOut(ctx context.Context, claims *Claims) error {
	return s.sessions.Remove(ctx, claims.UserID, claims.ID)
}

// Me loads the signed-in user. A student whose class no longer exists, or
// who never joined one, is not registered.
func (s *AuthService) Me(ctx context.Context, claims *Claims) (*model.User, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) && claims.Role == model.RoleStudent {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if user.Role != model.RoleStudent {
		return user, nil
	}
	if user.ClassID == nil {
		return nil, ErrNotRegistered
	}
	if _, err := s.classes.GetByID(ctx, *user.ClassID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	return user, nil
}

// GeneratePassword returns a random password from passwordAlphabet.
func GeneratePassword(length int) (string, error) {
	return randomString(passwordAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
