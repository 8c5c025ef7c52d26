package classroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classloop/classloop/pkg/qrcode"
	"github.com/classloop/classloop/svc/subscription"
)

// joinCodeAttempts bounds retries when a generated code collides with an
// existing one. Collisions are vanishingly rare at 34^6 combinations.
const joinCodeAttempts = 5

// Config holds classroom settings.
type Config struct {
	// JoinBaseURL is the page that accepts a ?code= parameter; QR codes
	// point students there.
	JoinBaseURL string `env:"CLASSROOM_JOIN_BASE_URL,required"`
}

// SeatSource reports the subscription whose seat limit governs a teacher's
// classrooms. subscription.Service satisfies it.
type SeatSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
}

// Service implements classroom management and the join flow.
type Service struct {
	store Store
	seats SeatSource
	cache *codeCache
	cfg   Config
	log   *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithCodeCache routes join code resolution through Redis.
func WithCodeCache(client redis.UniversalClient) ServiceOption {
	if client == nil {
		panic("classroom: redis client cannot be nil")
	}
	return func(s *Service) { s.cache.client = client }
}

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("classroom: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// NewService creates the classroom service.
func NewService(store Store, seats SeatSource, cfg Config, opts ...ServiceOption) *Service {
	if store == nil {
		panic("classroom: store cannot be nil")
	}
	if seats == nil {
		panic("classroom: seat source cannot be nil")
	}

	s := &Service{
		store: store,
		seats: seats,
		cfg:   cfg,
		log:   slog.Default(),
	}
	s.cache = newCodeCache(nil, s.log)
	for _, opt := range opts {
		opt(s)
	}
	s.cache.log = s.log
	return s
}

// Create makes a classroom with a fresh join code.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name, gradeBand string) (*Classroom, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}

		classroom := &Classroom{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Name:      name,
			GradeBand: gradeBand,
			JoinCode:  code,
		}
		err = s.store.Create(ctx, classroom)
		if errors.Is(err, ErrCodeExhausted) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.InfoContext(ctx, "classroom created",
			slog.String("classroom_id", classroom.ID.String()),
			slog.String("owner_id", ownerID.String()))
		return classroom, nil
	}
	return nil, ErrCodeExhausted
}

// ListOwned returns the teacher's classrooms.
func (s *Service) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]Classroom, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// ListJoined returns the classrooms the user is enrolled in.
func (s *Service) ListJoined(ctx context.Context, userID uuid.UUID) ([]Classroom, error) {
	return s.store.ListByStudent(ctx, userID)
}

// Get returns a classroom the requester owns. ErrNotOwner otherwise.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID) (*Classroom, error) {
	classroom, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if classroom.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	return classroom, nil
}

// Join enrolls the user in the classroom behind the code, enforcing the
// owner's seat limit.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, code string) (*Classroom, error) {
	code = normalizeJoinCode(code)
	if !validJoinCode(code) {
		return nil, ErrInvalidJoinCode
	}

	classroom, err := s.resolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if classroom.OwnerID == userID {
		return nil, ErrOwnerCannotJoin
	}

	limit, err := s.seatLimitFor(ctx, classroom.OwnerID)
	if err != nil {
		return nil, err
	}
	if limit != subscription.SeatsUnlimited {
		enrolled, err := s.store.CountEnrollments(ctx, classroom.ID)
		if err != nil {
			return nil, err
		}
		if enrolled >= limit {
			return nil, ErrClassroomFull
		}
	}

	if err := s.store.AddEnrollment(ctx, classroom.ID, userID); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "student joined classroom",
		slog.String("classroom_id", classroom.ID.String()),
		slog.String("user_id", userID.String()))
	return classroom, nil
}

// Roster returns the classroom's enrolled students. Owner only.
func (s *Service) Roster(ctx context.Context, classroomID, requesterID uuid.UUID) ([]RosterEntry, error) {
	if _, err := s.Get(ctx, classroomID, requesterID); err != nil {
		return nil, err
	}
	return s.store.Roster(ctx, classroomID)
}

// RegenerateCode replaces the join code, invalidating the old one. Owner
// only.
func (s *Service) RegenerateCode(ctx context.Context, classroomID, requesterID uuid.UUID) (*Classroom, error) {
	classroom, err := s.Get(ctx, classroomID, requesterID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}

		err = s.store.UpdateJoinCode(ctx, classroom.ID, code)
		if errors.Is(err, ErrCodeExhausted) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.cache.invalidate(ctx, classroom.JoinCode)
		classroom.JoinCode = code
		return classroom, nil
	}
	return nil, ErrCodeExhausted
}

// JoinQR renders the classroom's join link as a PNG QR code. Owner only.
func (s *Service) JoinQR(ctx context.Context, classroomID, requesterID uuid.UUID, size int) ([]byte, error) {
	classroom, err := s.Get(ctx, classroomID, requesterID)
	if err != nil {
		return nil, err
	}
	return qrcode.Generate(s.joinURL(classroom.JoinCode), size)
}

// JoinURL builds the link a join code points at.
func (s *Service) joinURL(code string) string {
	return s.cfg.JoinBaseURL + "?code=" + url.QueryEscape(code)
}

// resolveCode finds the classroom for a code, cache first. A cache hit is
// re-checked against the row's current code so a stale entry cannot admit
// students through a retired code.
func (s *Service) resolveCode(ctx context.Context, code string) (*Classroom, error) {
	if id, ok := s.cache.resolve(ctx, code); ok {
		classroom, err := s.store.GetByID(ctx, id)
		if err == nil && classroom.JoinCode == code {
			return classroom, nil
		}
		s.cache.invalidate(ctx, code)
	}

	classroom, err := s.store.GetByJoinCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidJoinCode
	}
	if err != nil {
		return nil, err
	}
	s.cache.store(ctx, code, classroom.ID)
	return classroom, nil
}

// seatLimitFor resolves the seat cap from the owner's subscription. Teachers
// without an active subscription run on the default classroom size.
func (s *Service) seatLimitFor(ctx context.Context, ownerID uuid.UUID) (int, error) {
	sub, err := s.seats.Get(ctx, ownerID)
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		return subscription.DefaultSeatsLimit, nil
	case err != nil:
		return 0, fmt.Errorf("resolve seat limit: %w", err)
	}

	// Past-due subscriptions keep their seats while dunning runs its course;
	// only cancellation drops the classroom back to the default size.
	if sub.IsCanceled() {
		return subscription.DefaultSeatsLimit, nil
	}
	return sub.SeatsLimit, nil
}
