package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	actor := identity.NewActor(uuid.New(), "budi", identity.RoleManager)

	tok, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, actor.OperatorID.String(), claims.Subject)
	assert.Equal(t, "manager", claims.Role)
	assert.NotEmpty(t, claims.ID)

	got, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, actor.OperatorID, got.OperatorID)
	assert.Equal(t, "budi", got.Username)
	assert.Equal(t, identity.RoleManager, got.Role)
	assert.True(t, got.HasPermission(identity.PermQuickSalesClose))
}

func TestGenerateAccessToken_RequiresOperator(t *testing.T) {
	_, err := newTestJWTService().GenerateAccessToken(identity.Actor{})
	assert.ErrorIs(t, err, ErrMissingOperatorID)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }
	tok, err := svc.GenerateAccessToken(identity.NewActor(uuid.New(), "ana", identity.RoleCashier))
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(tok.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	svc := newTestJWTService()
	tok, err := svc.GenerateAccessToken(identity.NewActor(uuid.New(), "ana", identity.RoleCashier))
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-chars!!", Issuer: "test-issuer", AccessTokenExpiration: time.Minute})
		_, err := other.ValidateAccessToken(tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere", AccessTokenExpiration: time.Minute})
		_, err := other.ValidateAccessToken(tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{OperatorID: uuid.NewString(), Role: "admin"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing operator", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(raw)
		assert.ErrorIs(t, err, ErrMissingOperatorID)
	})
}

func TestClaims_Actor(t *testing.T) {
	_, err := (&Claims{OperatorID: "nope", Role: "cashier"}).Actor()
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = (&Claims{OperatorID: uuid.NewString(), Role: "owner"}).Actor()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
	assert.InDelta(t, time.Minute.Seconds(), c.RemainingTTL(now).Seconds(), 1)
	assert.Zero(t, c.RemainingTTL(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).RemainingTTL(now))
}

func TestPinHasher(t *testing.T) {
	h := NewPinHasher(4)

	hash, err := h.Hash("4321")
	require.NoError(t, err)
	assert.NotEqual(t, "4321", hash)
	assert.True(t, h.Verify(hash, "4321"))
	assert.False(t, h.Verify(hash, "1234"))
	assert.False(t, h.Verify("not-a-hash", "4321"))

	_, err = h.Hash("12")
	assert.Error(t, err)

	op, err := identity.NewOperator("boss", "Boss", identity.RoleManager, time.Now())
	require.NoError(t, err)
	op.SetPinHash(hash, time.Now())
	assert.True(t, op.VerifyPin(h, "4321"))
}
