package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// Credential length bounds. bcrypt ignores input past 72 bytes.
const (
	MinCredentialLength = 4
	MaxCredentialLength = 72
)

var (
	// ErrJurorExists is returned when adding a juror whose ID is taken.
	ErrJurorExists = errors.New("juror already exists")

	// ErrInvalidCredential is returned for a credential that is too short,
	// too long, or does not match the stored hash.
	ErrInvalidCredential = errors.New("invalid credential")
)

// JuryOptions holds the jury service's collaborators.
type JuryOptions struct {
	Logger *slog.Logger
	Clock  func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// JuryService administers jurors and keeps exactly one chair whenever at
// least one juror exists. Chair changes are serialised in-process; the
// store offers no cross-document transaction.
type JuryService struct {
	store  ports.ContestStore
	logger *slog.Logger
	clock  func() time.Time
	cost   int
	mu     sync.Mutex
}

// NewJuryService returns a jury service over store.
func NewJuryService(store ports.ContestStore, opts JuryOptions) *JuryService {
	s := &JuryService{store: store, logger: opts.Logger, clock: opts.Clock, cost: opts.BcryptCost}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

// NewJuror describes a juror to add.
type NewJuror struct {
	ID         string
	Name       string
	Credential string
	Rounds     []string
	Chair      bool
}

// AddJuror stores a new juror with a hashed credential. Requesting the
// chair demotes the current one; the first juror becomes chair regardless.
func (s *JuryService) AddJuror(ctx context.Context, in NewJuror) (domain.Juror, error) {
	if in.ID == "" {
		return domain.Juror{}, fmt.Errorf("%w: juror ID cannot be empty", domain.ErrInvalidConfiguration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jurors, err := s.store.ListJurors(ctx)
	if err != nil {
		return domain.Juror{}, err
	}
	if slices.ContainsFunc(jurors, func(j domain.Juror) bool { return j.ID == in.ID }) {
		return domain.Juror{}, fmt.Errorf("juror %s: %w", in.ID, ErrJurorExists)
	}

	j := domain.Juror{
		ID:        in.ID,
		Name:      in.Name,
		Rounds:    slices.Clone(in.Rounds),
		IsChair:   in.Chair || len(jurors) == 0,
		CreatedAt: s.clock().UTC(),
	}
	if in.Credential != "" {
		if j.CredentialHash, err = s.hash(in.Credential); err != nil {
			return domain.Juror{}, err
		}
	}

	if j.IsChair {
		if current, ok := domain.ChairOf(jurors); ok {
			current.IsChair = false
			if err := s.store.PutJuror(ctx, current); err != nil {
				return domain.Juror{}, fmt.Errorf("failed to demote chair %s: %w", current.ID, err)
			}
			s.logger.InfoContext(ctx, "chair handed over", "from", current.ID, "to", j.ID)
		}
	}

	if err := s.store.PutJuror(ctx, j); err != nil {
		return domain.Juror{}, err
	}
	s.logger.InfoContext(ctx, "juror added", "juror_id", j.ID, "chair", j.IsChair, "rounds", len(j.Rounds))
	return j, nil
}

// RemoveJuror deletes a juror. Removing the chair promotes the earliest
// created remaining juror; the returned successor is empty when the chair
// did not change or nobody remains.
func (s *JuryService) RemoveJuror(ctx context.Context, jurorID string) (successor string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jurors, err := s.store.ListJurors(ctx)
	if err != nil {
		return "", err
	}
	i := slices.IndexFunc(jurors, func(j domain.Juror) bool { return j.ID == jurorID })
	if i < 0 {
		return "", fmt.Errorf("juror %s: %w", jurorID, domain.ErrNotFound)
	}
	removed := jurors[i]

	if err := s.store.DeleteJuror(ctx, jurorID); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "juror removed", "juror_id", jurorID)

	if !removed.IsChair {
		return "", nil
	}

	next, ok := domain.NextChair(slices.Delete(jurors, i, i+1))
	if !ok {
		s.logger.WarnContext(ctx, "chair removed with no juror left to succeed")
		return "", nil
	}
	next.IsChair = true
	if err := s.store.PutJuror(ctx, next); err != nil {
		return "", fmt.Errorf("failed to promote chair %s: %w", next.ID, err)
	}
	s.logger.InfoContext(ctx, "chair reassigned", "from", jurorID, "to", next.ID)
	return next.ID, nil
}

// ChangeCredential replaces a juror's credential after verifying the
// current one. A juror without a credential may set one freely.
func (s *JuryService) ChangeCredential(ctx context.Context, jurorID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.get(ctx, jurorID)
	if err != nil {
		return err
	}
	if j.CredentialHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(j.CredentialHash), []byte(current)); err != nil {
			return fmt.Errorf("juror %s: %w", jurorID, ErrInvalidCredential)
		}
	}

	if j.CredentialHash, err = s.hash(next); err != nil {
		return err
	}
	if err := s.store.PutJuror(ctx, j); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "credential changed", "juror_id", jurorID)
	return nil
}

// VerifyCredential reports whether credential matches the juror's hash.
func (s *JuryService) VerifyCredential(ctx context.Context, jurorID, credential string) (bool, error) {
	j, err := s.get(ctx, jurorID)
	if err != nil {
		return false, err
	}
	if j.CredentialHash == "" {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(j.CredentialHash), []byte(credential))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("juror %s: %w", jurorID, err)
	}
}

// Chair returns the current chair or domain.ErrNoChair.
func (s *JuryService) Chair(ctx context.Context) (domain.Juror, error) {
	jurors, err := s.store.ListJurors(ctx)
	if err != nil {
		return domain.Juror{}, err
	}
	chair, ok := domain.ChairOf(jurors)
	if !ok {
		return domain.Juror{}, domain.ErrNoChair
	}
	return chair, nil
}

func (s *JuryService) get(ctx context.Context, jurorID string) (domain.Juror, error) {
	jurors, err := s.store.ListJurors(ctx)
	if err != nil {
		return domain.Juror{}, err
	}
	i := slices.IndexFunc(jurors, func(j domain.Juror) bool { return j.ID == jurorID })
	if i < 0 {
		return domain.Juror{}, fmt.Errorf("juror %s: %w", jurorID, domain.ErrNotFound)
	}
	return jurors[i], nil
}

func (s *JuryService) hash(credential string) (string, error) {
	if n := len(credential); n < MinCredentialLength || n > MaxCredentialLength {
		return "", fmt.Errorf("%w: length must be between %d and %d bytes", ErrInvalidCredential, MinCredentialLength, MaxCredentialLength)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(credential), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(h), nil
}
