package scopelock

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wardend/internal/events"
)

// Service persists locks and runs checks against them.
type Service struct {
	store  Store
	sink   events.Sink
	logger *zap.Logger
}

// NewService creates a scope-lock service.
func NewService(store Store, sink events.Sink, logger *zap.Logger) *Service {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, sink: sink, logger: logger}
}

// CreateLock infers a lock from the request text, applies any explicit
// overrides, and persists it.
func (s *Service) CreateLock(ctx context.Context, request string, scope *ScopeRequest) (*Lock, error) {
	l := Create(request, scope)
	if err := s.store.SaveLock(ctx, l); err != nil {
		return nil, fmt.Errorf("save scope lock: %w", err)
	}
	s.logger.Info("scope lock created",
		zap.String("lock_id", l.ID),
		zap.Int("allowed_dirs", len(l.AllowedDirectories)))
	return l, nil
}

// GetLock loads a lock with its accumulated violations.
func (s *Service) GetLock(ctx context.Context, id string) (*Lock, error) {
	l, err := s.store.GetLock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scope lock: %w", err)
	}
	return l, nil
}

// Check evaluates one action against a stored lock. Blocked verdicts are
// persisted as violations; the verdict itself is data either way.
func (s *Service) Check(ctx context.Context, lockID string, a Action) (Verdict, error) {
	l, err := s.store.GetLock(ctx, lockID)
	if err != nil {
		return Verdict{}, fmt.Errorf("load scope lock: %w", err)
	}
	v := l.CheckAction(a)
	if v.Allowed {
		return v, nil
	}
	if err := s.store.AppendViolation(ctx, lockID, *v.Violation); err != nil {
		s.logger.Error("failed to persist scope violation",
			zap.String("lock_id", lockID), zap.Error(err))
	}
	s.sink.Emit(ctx, events.New(events.KindScopeViolation, lockID, map[string]string{
		"action": string(a.Type),
		"target": a.TargetFile,
		"reason": v.Reason,
	}))
	return v, nil
}
