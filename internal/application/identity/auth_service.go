package identity

import (
	"context"
	"errors"
	"time"

	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for any failed login. It never says
// whether the username or the PIN was wrong.
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or PIN")

// AuthService signs operators in and out
type AuthService struct {
	operators  identity.OperatorRepository
	pins       identity.PinVerifier
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	clock      shared.Clock
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	operators identity.OperatorRepository,
	pins identity.PinVerifier,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	clock shared.Clock,
	logger *zap.Logger,
) *AuthService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		operators:  operators,
		pins:       pins,
		jwtService: jwtService,
		blacklist:  blacklist,
		clock:      clock,
		logger:     logger,
	}
}

// Login verifies the operator's PIN and issues an access token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	op, err := s.operators.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown operator",
				zap.String("username", req.Username),
				zap.String("request_id", req.RequestID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !op.VerifyPin(s.pins, req.Pin) {
		s.logger.Warn("Login rejected",
			zap.String("username", op.Username),
			zap.Bool("active", op.IsActive),
			zap.String("request_id", req.RequestID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(op.Actor())
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Operator logged in",
		zap.String("operator_id", op.ID.String()),
		zap.String("role", string(op.Role)),
		zap.String("request_id", req.RequestID))

	return &LoginResult{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Operator:    ToOperatorInfo(op),
	}, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, req LogoutRequest) error {
	if req.TokenID == "" {
		return shared.NewInvalidInputError("Token has no id")
	}
	ttl := req.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, req.TokenID, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return err
	}

	s.logger.Info("Operator logged out",
		zap.String("operator_id", req.Actor.OperatorID.String()),
		zap.Duration("revoked_for", ttl.Round(time.Second)),
		zap.String("request_id", req.RequestID))
	return nil
}
