package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// PinHasher hashes new PINs and verifies presented ones
type PinHasher interface {
	identity.PinVerifier
	Hash(pin string) (string, error)
}

// OperatorService manages till operators. Every operation except changing
// one's own PIN needs identity.PermOperatorManage.
type OperatorService struct {
	operators identity.OperatorRepository
	hasher    PinHasher
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	clock     shared.Clock
	logger    *zap.Logger
}

// NewOperatorService creates a new OperatorService. tokenTTL bounds how long an
// operator-wide revocation is kept: no token outlives it.
func NewOperatorService(
	operators identity.OperatorRepository,
	hasher PinHasher,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	clock shared.Clock,
	logger *zap.Logger,
) *OperatorService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperatorService{
		operators: operators,
		hasher:    hasher,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		clock:     clock,
		logger:    logger,
	}
}

// CreateOperator registers an operator with an initial PIN
func (s *OperatorService) CreateOperator(ctx context.Context, req CreateOperatorRequest) (*OperatorInfo, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermOperatorManage); err != nil {
		return nil, err
	}
	op, err := s.create(ctx, req.Username, req.DisplayName, identity.Role(req.Role), req.Pin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Operator created",
		zap.String("operator_id", op.ID.String()),
		zap.String("username", op.Username),
		zap.String("role", string(op.Role)),
		zap.String("created_by", req.Actor.OperatorID.String()),
		zap.String("request_id", req.RequestID))

	info := ToOperatorInfo(op)
	return &info, nil
}

// GetOperator returns one operator. Operators may always read their own record.
func (s *OperatorService) GetOperator(ctx context.Context, actor identity.Actor, id uuid.UUID) (*OperatorInfo, error) {
	if actor.OperatorID != id {
		if err := appshared.RequirePermission(actor, identity.PermOperatorManage); err != nil {
			return nil, err
		}
	}
	op, err := s.operators.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := ToOperatorInfo(op)
	return &info, nil
}

// SetPin replaces an operator's PIN. Operators may change their own.
func (s *OperatorService) SetPin(ctx context.Context, req SetPinRequest) error {
	if req.Actor.OperatorID != req.OperatorID {
		if err := appshared.RequirePermission(req.Actor, identity.PermOperatorManage); err != nil {
			return err
		}
	} else if req.Actor.IsZero() {
		return shared.ErrUnauthorized
	}

	op, err := s.operators.FindByID(ctx, req.OperatorID)
	if err != nil {
		return err
	}
	if !op.IsActive {
		return shared.ErrInvalidState.WithMessage("Operator %s is deactivated", op.Username)
	}
	hash, err := s.hasher.Hash(req.Pin)
	if err != nil {
		return err
	}
	op.SetPinHash(hash, s.clock())
	if err := s.operators.Save(ctx, op); err != nil {
		return err
	}

	s.logger.Info("Operator PIN changed",
		zap.String("operator_id", op.ID.String()),
		zap.String("changed_by", req.Actor.OperatorID.String()),
		zap.String("request_id", req.RequestID))
	return nil
}

// Deactivate blocks an operator and revokes every token issued to them
func (s *OperatorService) Deactivate(ctx context.Context, req DeactivateOperatorRequest) (*OperatorInfo, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermOperatorManage); err != nil {
		return nil, err
	}
	if req.Actor.OperatorID == req.OperatorID {
		return nil, shared.ErrInvalidState.WithMessage("Operators cannot deactivate themselves")
	}

	op, err := s.operators.FindByID(ctx, req.OperatorID)
	if err != nil {
		return nil, err
	}
	op.Deactivate(s.clock())
	if err := s.operators.Save(ctx, op); err != nil {
		return nil, err
	}
	if err := s.blacklist.InvalidateOperator(ctx, op.ID.String(), s.tokenTTL); err != nil {
		s.logger.Error("Failed to revoke tokens of deactivated operator",
			zap.String("operator_id", op.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Operator deactivated",
		zap.String("operator_id", op.ID.String()),
		zap.String("deactivated_by", req.Actor.OperatorID.String()),
		zap.String("request_id", req.RequestID))

	info := ToOperatorInfo(op)
	return &info, nil
}

// BootstrapAdmin creates the first admin when no operator holds username yet.
// It reports whether an operator was created.
func (s *OperatorService) BootstrapAdmin(ctx context.Context, username, pin string) (bool, error) {
	_, err := s.operators.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	op, err := s.create(ctx, username, "Administrator", identity.RoleAdmin, pin)
	if err != nil {
		return false, err
	}
	s.logger.Info("Bootstrap admin created", zap.String("operator_id", op.ID.String()), zap.String("username", op.Username))
	return true, nil
}

func (s *OperatorService) create(ctx context.Context, username, displayName string, role identity.Role, pin string) (*identity.Operator, error) {
	op, err := identity.NewOperator(username, displayName, role, s.clock())
	if err != nil {
		return nil, err
	}
	if _, err := s.operators.FindByUsername(ctx, op.Username); err == nil {
		return nil, shared.NewConstraintViolationError("Username %q is already taken", op.Username)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(pin)
	if err != nil {
		return nil, err
	}
	op.SetPinHash(hash, s.clock())
	if err := s.operators.Save(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}
