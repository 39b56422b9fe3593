package task

import (
	"context"
	"time"

	"task-manager/internal/ids"
	"task-manager/internal/model"
)

const defaultStoreTimeout = 5 * time.Second

type Service struct {
	repo         TaskRepository
	clock        *Clock
	newID        func() string
	storeTimeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = NewClock(now)
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithStoreTimeout bounds every store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func NewService(repo TaskRepository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		clock:        NewClock(nil),
		newID:        ids.NewID,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeContext detaches ctx from the caller's cancellation so a client that
// goes away cannot interrupt a store call half way. The call is bounded by
// storeTimeout or the caller's deadline, whichever comes first.
func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.storeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (s *Service) Create(ctx context.Context, title, description string) (model.Task, error) {
	valid, err := ValidateTitle(title)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		ID:          s.newID(),
		Title:       valid,
		Description: description,
		Completed:   false,
		CreatedAt:   s.clock.Next(),
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.repo.Insert(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]model.Task, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (model.Task, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.repo.Get(ctx, id)
}

// Update merges patch into the task. A supplied title must be non-empty
// after trimming, whatever the backend. An empty patch returns the task as is.
func (s *Service) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if patch.Title != nil {
		valid, err := ValidateTitle(*patch.Title)
		if err != nil {
			return model.Task{}, err
		}
		patch.Title = &valid
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	if patch.Empty() {
		return s.repo.Get(ctx, id)
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.repo.Delete(ctx, id)
}
