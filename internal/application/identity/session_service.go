// Package identity holds the client session: login, registration and the
// persisted token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/validation"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/auth"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

var sessionKeys = []string{
	shared.StorageKeyToken,
	shared.StorageKeyTenantID,
	shared.StorageKeyUserID,
	shared.StorageKeyRole,
}

// SessionService logs users in and out and remembers the session
type SessionService struct {
	gateway identity.AuthGateway
	store   shared.KeyValueStore
	now     func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(gateway identity.AuthGateway, store shared.KeyValueStore) *SessionService {
	return &SessionService{
		gateway: gateway,
		store:   store,
		now:     time.Now,
	}
}

// Login authenticates against the users service and persists the session
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*identity.Session, error) {
	input.TenantID = strings.ToLower(strings.TrimSpace(input.TenantID))
	input.UserID = strings.TrimSpace(input.UserID)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	tenant := catalog.TenantID(input.TenantID)

	ctx, span := telemetry.StartSpan(ctx, "session.login",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, input.TenantID),
		telemetry.WithAttribute(telemetry.SpanAttrUserID, input.UserID))
	defer span.End()

	log := logger.L(ctx).With(zap.String("tenant_id", input.TenantID), zap.String("user_id", input.UserID))

	result, err := s.gateway.Login(ctx, identity.Credentials{
		TenantID: tenant,
		UserID:   input.UserID,
		Password: input.Password,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Login failed", zap.Error(err))
		return nil, err
	}

	session := &identity.Session{
		TenantID: tenant,
		UserID:   input.UserID,
		Token:    result.Token,
		Role:     identity.ParseRole(result.Role),
	}
	if info, err := auth.Inspect(result.Token); err == nil {
		session.ExpiresAt = info.ExpiresAt
		if result.Role == "" {
			session.Role = identity.ParseRole(info.Role)
		}
	}

	if err := s.persist(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	log.Info("Logged in", zap.String("role", string(session.Role)))
	return session, nil
}

// Register creates an account. It does not log the user in.
func (s *SessionService) Register(ctx context.Context, input RegisterInput) error {
	input.TenantID = strings.ToLower(strings.TrimSpace(input.TenantID))
	input.UserID = strings.TrimSpace(input.UserID)
	if err := validation.Struct(input); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "session.register",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, input.TenantID),
		telemetry.WithAttribute(telemetry.SpanAttrUserID, input.UserID))
	defer span.End()

	err := s.gateway.Register(ctx, identity.Credentials{
		TenantID: catalog.TenantID(input.TenantID),
		UserID:   input.UserID,
		Password: input.Password,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Warn("Registration failed", zap.String("user_id", input.UserID), zap.Error(err))
		return err
	}

	telemetry.SetOK(span)
	logger.L(ctx).Info("Registered", zap.String("tenant_id", input.TenantID), zap.String("user_id", input.UserID))
	return nil
}

// Logout forgets every persisted session field
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	logger.L(ctx).Debug("Logged out")
	return nil
}

// Current returns the persisted session, or nil when nobody is logged in
// or the token has expired
func (s *SessionService) Current(ctx context.Context) (*identity.Session, error) {
	values := make(map[string]string, len(sessionKeys))
	for _, k := range sessionKeys {
		v, ok, err := s.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if ok {
			values[k] = v
		}
	}

	token := values[shared.StorageKeyToken]
	tenant, err := catalog.ParseTenant(values[shared.StorageKeyTenantID])
	if token == "" || err != nil || values[shared.StorageKeyUserID] == "" {
		return nil, nil
	}

	session := &identity.Session{
		TenantID: tenant,
		UserID:   values[shared.StorageKeyUserID],
		Token:    token,
		Role:     identity.ParseRole(values[shared.StorageKeyRole]),
	}
	if info, err := auth.Inspect(token); err == nil {
		session.ExpiresAt = info.ExpiresAt
	}
	if session.IsExpired(s.now()) {
		logger.L(ctx).Info("Session token expired", zap.String("user_id", session.UserID))
		return nil, nil
	}
	return session, nil
}

// Require is Current that fails with NOT_AUTHENTICATED instead of
// returning nil
func (s *SessionService) Require(ctx context.Context) (*identity.Session, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return session, nil
}

// Validate asks the users service whether the persisted token is still
// accepted. A rejected token also ends the local session.
func (s *SessionService) Validate(ctx context.Context) (bool, string, error) {
	session, err := s.Require(ctx)
	if err != nil {
		return false, "", err
	}

	ok, msg, err := s.gateway.Validate(ctx, session.Token, session.TenantID)
	if err != nil {
		return false, "", err
	}
	if !ok {
		logger.L(ctx).Info("Token rejected by users service", zap.String("reason", msg))
		if err := s.Logout(ctx); err != nil {
			return false, msg, err
		}
	}
	return ok, msg, nil
}

func (s *SessionService) persist(ctx context.Context, session *identity.Session) error {
	values := map[string]string{
		shared.StorageKeyToken:    session.Token,
		shared.StorageKeyTenantID: string(session.TenantID),
		shared.StorageKeyUserID:   session.UserID,
		shared.StorageKeyRole:     string(session.Role),
	}
	var errs []error
	for _, k := range sessionKeys {
		if err := s.store.Set(ctx, k, values[k]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
