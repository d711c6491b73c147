package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/api"
	"github.com/abarrotes/storefront/internal/infrastructure/persistence"
	"github.com/abarrotes/storefront/internal/testutil/fakeapi"
)

// MockAuthGateway is a mock implementation of identity.AuthGateway
type MockAuthGateway struct {
	mock.Mock
}

func (m *MockAuthGateway) Register(ctx context.Context, creds identity.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *MockAuthGateway) Login(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResult), args.Error(1)
}

func (m *MockAuthGateway) Validate(ctx context.Context, token string, tenant catalog.TenantID) (bool, string, error) {
	args := m.Called(ctx, token, tenant)
	return args.Bool(0), args.String(1), args.Error(2)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestSessionService_LoginPersistsSession(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser(catalog.TenantWong, "maria", "secret", "admin")
	store := persistence.NewMemoryStore()
	svc := NewSessionService(api.NewClient(api.SingleHost(srv.URL)), store)
	ctx := context.Background()

	session, err := svc.Login(ctx, LoginInput{TenantID: " Wong ", UserID: "maria", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, catalog.TenantWong, session.TenantID)
	assert.Equal(t, "maria", session.UserID)
	assert.True(t, session.IsAdmin())
	assert.False(t, session.ExpiresAt.IsZero())

	token, ok, err := store.Get(ctx, shared.StorageKeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, session.Token, token)
	tenant, _, _ := store.Get(ctx, shared.StorageKeyTenantID)
	assert.Equal(t, "wong", tenant)
	role, _, _ := store.Get(ctx, shared.StorageKeyRole)
	assert.Equal(t, "admin", role)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, session.Token, current.Token)
	assert.True(t, current.IsAdmin())
}

func TestSessionService_LoginRejected(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser(catalog.TenantWong, "maria", "secret", "user")
	store := persistence.NewMemoryStore()
	svc := NewSessionService(api.NewClient(api.SingleHost(srv.URL)), store)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{TenantID: "wong", UserID: "maria", Password: "nope"})
	require.Error(t, err)
	assert.True(t, api.IsRemote(err))
	assert.Equal(t, "Credenciales inválidas", err.Error())

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestSessionService_LoginValidation(t *testing.T) {
	gateway := new(MockAuthGateway)
	svc := NewSessionService(gateway, persistence.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{TenantID: "wong", UserID: "", Password: "x"})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = svc.Login(ctx, LoginInput{TenantID: "metro", UserID: "ana", Password: "x"})
	assert.True(t, errors.Is(err, shared.ErrInvalidTenant))

	gateway.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestSessionService_RoleFromTokenClaims(t *testing.T) {
	gateway := new(MockAuthGateway)
	token := signedToken(t, jwt.MapClaims{"rol": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	gateway.On("Login", mock.Anything, identity.Credentials{TenantID: catalog.TenantTottus, UserID: "luis", Password: "pw"}).
		Return(&identity.AuthResult{Token: token}, nil)

	svc := NewSessionService(gateway, persistence.NewMemoryStore())
	session, err := svc.Login(context.Background(), LoginInput{TenantID: "tottus", UserID: "luis", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, session.Role)
	gateway.AssertExpectations(t)
}

func TestSessionService_OpaqueTokenDefaultsToUser(t *testing.T) {
	gateway := new(MockAuthGateway)
	gateway.On("Login", mock.Anything, mock.Anything).Return(&identity.AuthResult{Token: "opaque-token"}, nil)

	svc := NewSessionService(gateway, persistence.NewMemoryStore())
	ctx := context.Background()
	session, err := svc.Login(ctx, LoginInput{TenantID: "plazavea", UserID: "rosa", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, identity.RoleUser, session.Role)
	assert.True(t, session.ExpiresAt.IsZero())

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "opaque-token", current.Token)
}

func TestSessionService_ExpiredTokenIsNoSession(t *testing.T) {
	gateway := new(MockAuthGateway)
	token := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	gateway.On("Login", mock.Anything, mock.Anything).Return(&identity.AuthResult{Token: token, Role: "user"}, nil)

	svc := NewSessionService(gateway, persistence.NewMemoryStore())
	ctx := context.Background()
	_, err := svc.Login(ctx, LoginInput{TenantID: "wong", UserID: "ana", Password: "pw"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = svc.Require(ctx)
	assert.True(t, errors.Is(err, shared.ErrNotAuthenticated))
}

func TestSessionService_Logout(t *testing.T) {
	gateway := new(MockAuthGateway)
	gateway.On("Login", mock.Anything, mock.Anything).Return(&identity.AuthResult{Token: "t", Role: "user"}, nil)
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, shared.StorageKeyCart, `{"items":[]}`))

	svc := NewSessionService(gateway, store)
	_, err := svc.Login(ctx, LoginInput{TenantID: "wong", UserID: "ana", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	for _, k := range sessionKeys {
		_, ok, err := store.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
	_, ok, _ := store.Get(ctx, shared.StorageKeyCart)
	assert.True(t, ok, "logout keeps the cart")
}

func TestSessionService_Register(t *testing.T) {
	srv := fakeapi.New(t)
	store := persistence.NewMemoryStore()
	svc := NewSessionService(api.NewClient(api.SingleHost(srv.URL)), store)
	ctx := context.Background()

	input := RegisterInput{TenantID: "tottus", UserID: "pedro", Password: "clave123"}
	require.NoError(t, svc.Register(ctx, input))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current, "registration does not log in")

	err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.Equal(t, "El usuario ya existe", err.Error())

	_, err = svc.Login(ctx, LoginInput{TenantID: "tottus", UserID: "pedro", Password: "clave123"})
	assert.NoError(t, err)
}

func TestSessionService_Validate(t *testing.T) {
	gateway := new(MockAuthGateway)
	gateway.On("Login", mock.Anything, mock.Anything).Return(&identity.AuthResult{Token: "tok", Role: "user"}, nil)
	gateway.On("Validate", mock.Anything, "tok", catalog.TenantWong).Return(false, "Token no válido", nil).Once()

	svc := NewSessionService(gateway, persistence.NewMemoryStore())
	ctx := context.Background()

	_, _, err := svc.Validate(ctx)
	assert.True(t, errors.Is(err, shared.ErrNotAuthenticated))

	_, err = svc.Login(ctx, LoginInput{TenantID: "wong", UserID: "ana", Password: "pw"})
	require.NoError(t, err)

	ok, msg, err := svc.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Token no válido", msg)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current, "a rejected token ends the session")
	gateway.AssertExpectations(t)
}
