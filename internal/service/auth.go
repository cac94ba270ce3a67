package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	pkghash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
	otherRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
}

type RegisterInput struct {
	Email    string
	Password string
	// ConfirmPassword is checked only when the client sends it.
	ConfirmPassword string
	FirstName       string
	MiddleName      string
	LastName        string
	PhoneNumber     string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	UserID       uuid.UUID
	Role         models.Role
	IsAdmin      bool
}

// Register always creates a plain user; admins come only from EnsureAdmin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateRegistration(in); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return nil, err
	}

	pwHash, err := pkghash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &ValidationError{Fields: map[string]string{"credentials": "email and password are required"}}
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_error", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_error", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(ctx, user.ID, user.Role)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return res, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_error", "status", 401, "reason", "bad token", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	res, next, err := s.sign(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), next); err != nil {
		if errors.Is(err, repo.ErrRefreshExpiredOrRevoked) {
			l.Warn("refresh_error", "status", 401, "reason", "expired or revoked", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return res, nil
}

// LogOut revokes the refresh token. Unknown or empty tokens are ignored.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshByHash(ctx, tokens.Sha256Hex(refreshToken))
}

// Authenticate turns a valid access token into a session.
func (s *AuthService) Authenticate(accessToken string) (session.Session, *tokens.AccessClaims, error) {
	claims, err := tokens.AccessClaimsFromToken(accessToken, s.AccessSecret)
	if err != nil {
		return session.Session{}, nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return session.Session{}, nil, ErrUnauthorized
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return session.Session{}, nil, ErrUnauthorized
	}
	return session.Session{UserID: id, Role: role}, claims, nil
}

// EnsureAdmin creates or promotes the configured admin account. Safe to run on every start.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.ensure_admin")

	if email == "" || password == "" {
		l.Info("ensure_admin_skipped")
		return nil
	}

	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := s.Repo.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin && pkghash.CheckPassword(existing.PasswordHash, password) {
			return nil
		}
		if err := s.Repo.PromoteToAdmin(ctx, existing.ID, pwHash); err != nil {
			return err
		}
		l.Info("ensure_admin_promoted", "user_id", existing.ID)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	admin := &models.User{
		Email:        email,
		FirstName:    "Admin",
		LastName:     "Admin",
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, admin); err != nil && !errors.Is(err, repo.ErrUserAlreadyExist) {
		return err
	}
	l.Info("ensure_admin_created", "user_id", admin.ID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, sess session.Session) (*models.User, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	u, err := s.Repo.UserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, userID uuid.UUID, role models.Role) (*LoginResult, error) {
	res, stored, err := s.sign(userID, role)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, stored); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AuthService) sign(userID uuid.UUID, role models.Role) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(AccessTTL)
	refreshExp := now.Add(RefreshTTL)

	access, err := tokens.SignAccess(userID.String(), string(role), accessExp, s.AccessSecret)
	if err != nil {
		return nil, nil, err
	}
	refresh, jti, err := tokens.SignRefresh(userID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	return &LoginResult{
			AccessToken:  access,
			RefreshToken: refresh,
			AccessExp:    accessExp,
			RefreshExp:   refreshExp,
			UserID:       userID,
			Role:         role,
			IsAdmin:      role == models.RoleAdmin,
		}, &models.RefreshToken{
			UserID:    userID,
			JTI:       jti,
			TokenHash: tokens.Sha256Hex(refresh),
			ExpiresAt: refreshExp.UTC(),
		}, nil
}

func validateRegistration(in RegisterInput) error {
	verr := &ValidationError{}

	email := strings.TrimSpace(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.add("email", "invalid email address")
	}

	switch {
	case len(in.Password) < 8:
		verr.add("password", "password must be at least 8 characters")
	case !upperRe.MatchString(in.Password):
		verr.add("password", "must contain at least one uppercase letter")
	case !lowerRe.MatchString(in.Password):
		verr.add("password", "must contain at least one lowercase letter")
	case !digitRe.MatchString(in.Password):
		verr.add("password", "must contain at least one number")
	case !otherRe.MatchString(in.Password):
		verr.add("password", "must contain at least one special character")
	}

	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		verr.add("confirm_password", "passwords do not match")
	}

	checkName := func(field, v string, required bool) {
		v = strings.TrimSpace(v)
		switch {
		case v == "" && required:
			verr.add(field, "is required")
		case v != "" && !nameRe.MatchString(v):
			verr.add(field, "no numbers or emojis")
		}
	}
	checkName("first_name", in.FirstName, true)
	checkName("middle_name", in.MiddleName, false)
	checkName("last_name", in.LastName, true)

	if p := strings.TrimSpace(in.PhoneNumber); p != "" && !phoneRe.MatchString(p) {
		verr.add("phone_number", "invalid phone number")
	}

	return verr.orNil()
}
