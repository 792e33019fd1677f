package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/ledger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService signs users up against a UserRegistrar.
type RegistrationService struct {
	registrar ledger.UserRegistrar
	cost      int
	now       func() time.Time
}

// NewRegistrationService uses bcrypt.DefaultCost when cost is out of range.
func NewRegistrationService(registrar ledger.UserRegistrar, cost int) *RegistrationService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &RegistrationService{registrar: registrar, cost: cost, now: time.Now}
}

// Register validates the form, hashes the password and stores the user.
// The returned user carries no password hash.
func (s *RegistrationService) Register(ctx context.Context, r core.Registration) (core.User, error) {
	if err := r.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(r.Name),
		Email:        r.NormalizedEmail(),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	ref, err := s.registrar.RegisterUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "id", u.ID, "ref", ref)
	u.PasswordHash = ""
	return u, nil
}
