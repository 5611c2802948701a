// Package service is the service layer of admin accounts and sessions.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Laisky/laisky-cms/internal/web/admin/model"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/jwt"
)

const (
	minPasswordLen = 8
	// bcrypt ignores bytes beyond 72
	maxPasswordLen = 72

	invalidCredentials = "Invalid credentials"
	unauthorized       = "Unauthorized"
)

// Store is the persistence of admin accounts
type Store interface {
	Insert(ctx context.Context, admin *model.Admin) error
	GetByAccount(ctx context.Context, account string) (*model.Admin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Admin, error)
}

// Revoker remembers tokens invalidated by logout
type Revoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Limiter counts failed logins per account
type Limiter interface {
	IncrLoginFailures(ctx context.Context, account string, window time.Duration) (int64, error)
	LoginFailures(ctx context.Context, account string) (int64, error)
	ResetLoginFailures(ctx context.Context, account string) error
}

// Admin admin service
type Admin struct {
	logger      logSDK.Logger
	store       Store
	jwt         *jwt.JWT
	revoker     Revoker
	limiter     Limiter
	maxFailures int64
	lockWindow  time.Duration
	now         func() time.Time
}

// Option configures the admin service
type Option func(*Admin)

// WithRevoker enables token revocation on logout
func WithRevoker(r Revoker) Option {
	return func(s *Admin) {
		s.revoker = r
	}
}

// WithLoginLimiter locks an account out after maxFailures
// failed logins within window
func WithLoginLimiter(l Limiter, maxFailures int, window time.Duration) Option {
	return func(s *Admin) {
		if maxFailures <= 0 || window <= 0 {
			return
		}

		s.limiter = l
		s.maxFailures = int64(maxFailures)
		s.lockWindow = window
	}
}

// New new admin service
func New(logger logSDK.Logger, store Store, signer *jwt.JWT, opts ...Option) *Admin {
	s := &Admin{
		logger: logger,
		store:  store,
		jwt:    signer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TokenTTL lifetime of issued tokens
func (s *Admin) TokenTTL() time.Duration {
	return s.jwt.TTL()
}

// NormalizeAccount accounts are case-insensitive
func NormalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// CreateAdmin stores a new admin with a bcrypt hashed password
func (s *Admin) CreateAdmin(ctx context.Context, account, password string) (*model.Admin, error) {
	account = NormalizeAccount(account)
	if account == "" {
		return nil, httperr.Validation("account is required")
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, httperr.Validation("password should be 8 to 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	admin := &model.Admin{
		Account:   account,
		Password:  string(hash),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err = s.store.Insert(ctx, admin); err != nil {
		if errors.Is(err, model.ErrAccountExists) {
			return nil, httperr.Wrap(httperr.KindValidation, err, "Account already exists")
		}

		return nil, errors.Wrap(err, "insert admin")
	}

	s.logger.Info("admin created", zap.String("account", account))
	return admin, nil
}

func (s *Admin) checkLocked(ctx context.Context, account string) error {
	if s.limiter == nil {
		return nil
	}

	failures, err := s.limiter.LoginFailures(ctx, account)
	if err != nil {
		s.logger.Warn("load login failures", zap.String("account", account), zap.Error(err))
		return nil
	}
	if failures >= s.maxFailures {
		return httperr.TooManyRequests("Too many failed login attempts, try again later")
	}

	return nil
}

func (s *Admin) recordFailure(ctx context.Context, account string) {
	if s.limiter == nil {
		return
	}

	if _, err := s.limiter.IncrLoginFailures(ctx, account, s.lockWindow); err != nil {
		s.logger.Warn("record login failure", zap.String("account", account), zap.Error(err))
	}
}

// Login checks credentials and issues an access token
func (s *Admin) Login(ctx context.Context, account, password string) (token string, admin *model.Admin, err error) {
	account = NormalizeAccount(account)
	if account == "" || password == "" {
		return "", nil, httperr.Unauthorized(invalidCredentials)
	}

	if err = s.checkLocked(ctx, account); err != nil {
		return "", nil, err
	}

	admin, err = s.store.GetByAccount(ctx, account)
	if err != nil {
		if !errors.Is(err, model.ErrAdminNotFound) {
			return "", nil, errors.Wrap(err, "load admin")
		}

		s.recordFailure(ctx, account)
		return "", nil, httperr.Wrap(httperr.KindUnauthorized, err, invalidCredentials)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		s.recordFailure(ctx, account)
		return "", nil, httperr.Wrap(httperr.KindUnauthorized, err, invalidCredentials)
	}

	if s.limiter != nil {
		if err = s.limiter.ResetLoginFailures(ctx, account); err != nil {
			s.logger.Warn("reset login failures", zap.String("account", account), zap.Error(err))
		}
	}

	token, _, err = s.jwt.Sign(admin.ID.Hex(), admin.Account)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}

	s.logger.Info("admin login", zap.String("account", account))
	return token, admin, nil
}

// Authenticate verifies token and that it was not revoked
func (s *Admin) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, httperr.Unauthorized(unauthorized)
	}

	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, httperr.Wrap(httperr.KindUnauthorized, err, unauthorized)
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, errors.Wrap(err, "check token revocation")
		}
		if revoked {
			return nil, httperr.Unauthorized(unauthorized)
		}
	}

	return claims, nil
}

// Logout revokes the token until it would have expired
func (s *Admin) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return errors.Wrap(err, "revoke token")
	}

	return nil
}

// Me returns the admin owning the token
func (s *Admin) Me(ctx context.Context, claims *jwt.Claims) (*model.Admin, error) {
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, httperr.Wrap(httperr.KindUnauthorized, err, unauthorized)
	}

	admin, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, httperr.Wrap(httperr.KindUnauthorized, err, unauthorized)
		}

		return nil, errors.Wrap(err, "load admin")
	}

	return admin, nil
}
