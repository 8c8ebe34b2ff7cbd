// Package cleanup implements the photo-blob orphan policy: what happens to
// a post's photo blob when its delete fails after the post row is already
// gone. The policy is explicit configuration, not an implicit guess.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/wrenhq/wren/internal/storage"
)

// Policy names a handling strategy for orphaned blobs.
type Policy string

const (
	// PolicyAccept logs the orphan and accepts the leak.
	PolicyAccept Policy = "accept"
	// PolicyRetry queues the orphaned key and retries the delete on the
	// sweep schedule until it succeeds.
	PolicyRetry Policy = "retry"
)

// ParsePolicy validates a policy name from config.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyAccept, "":
		return PolicyAccept, nil
	case PolicyRetry:
		return PolicyRetry, nil
	default:
		return "", fmt.Errorf("unknown cleanup policy: %q (use accept or retry)", raw)
	}
}

// Service applies the configured policy. Under PolicyRetry it keeps an
// in-memory queue of orphaned keys and sweeps them on a cron schedule.
type Service struct {
	policy Policy
	blobs  storage.Provider
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}

	cron    *cron.Cron
	entryID cron.EntryID
}

// NewService creates a cleanup service with the given policy.
func NewService(log *slog.Logger, blobs storage.Provider, policy Policy) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		policy:  policy,
		blobs:   blobs,
		logger:  log.With(slog.String("service", "cleanup")),
		pending: map[string]struct{}{},
	}
}

// HandleOrphan receives a blob key whose delete failed after the owning
// post row was removed. Under PolicyAccept the leak is logged and dropped;
// under PolicyRetry the key is queued for the next sweep.
func (s *Service) HandleOrphan(key string, cause error) {
	switch s.policy {
	case PolicyRetry:
		s.mu.Lock()
		s.pending[key] = struct{}{}
		queued := len(s.pending)
		s.mu.Unlock()
		s.logger.Warn("orphaned blob queued for retry",
			slog.String("key", key), slog.Int("queued", queued), slog.Any("cause", cause))
	default:
		s.logger.Warn("orphaned blob accepted as leaked",
			slog.String("key", key), slog.Any("cause", cause))
	}
}

// Pending returns the number of queued orphan keys.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sweep retries the delete for every queued key, dropping the ones that
// succeed. Keys whose delete still fails stay queued.
func (s *Service) Sweep(ctx context.Context) {
	if s.blobs == nil {
		return
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("orphan sweep delete failed", slog.String("key", key), slog.Any("error", err))
			continue
		}
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		s.logger.Info("orphaned blob removed", slog.String("key", key))
	}
}

// Start schedules the sweep under PolicyRetry. spec is a cron expression
// (e.g. "@every 5m"). Under PolicyAccept Start is a no-op.
func (s *Service) Start(spec string) error {
	if s.policy != PolicyRetry {
		return nil
	}
	s.cron = cron.New()
	entryID, err := s.cron.AddFunc(spec, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
