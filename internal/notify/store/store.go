// Package store holds the session-scoped client snapshot of notifications
// and the unread counter, and applies well-defined deltas for the four
// synchronization operations.
//
// The counter is adjusted locally on mutations while the list is replaced
// wholesale by every fetch. A fetch response landing after a concurrent
// mutation response can therefore overwrite the just-applied local patch
// with slightly stale server data; with a 30-second polling cadence this is
// accepted behavior, and the store deliberately does not serialize in-flight
// operations against each other. The mutex below only guards the in-memory
// snapshot, never a network round-trip.
package store

import (
	"context"
	"sync"
	"time"

	"borrowhub-notify/internal/common/logger"
	"borrowhub-notify/internal/common/metrics"
	"borrowhub-notify/internal/common/observability"
	"borrowhub-notify/internal/models"
)

// Backend is the remote notification service the store synchronizes against.
type Backend interface {
	List(ctx context.Context) (*models.ListResponse, error)
	Create(ctx context.Context, draft models.NotificationDraft) (*models.ItemResponse, error)
	MarkRead(ctx context.Context, id string) (*models.ItemResponse, error)
	Delete(ctx context.Context, id string) (*models.MessageResponse, error)
}

// Snapshot is a point-in-time copy of the store state handed to readers.
type Snapshot struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
	SavedAt       time.Time             `json:"savedAt,omitempty"`
}

// SnapshotCache persists last-known-good snapshots across agent restarts.
// All cache failures are best-effort: they never fail a store operation.
type SnapshotCache interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

type Store struct {
	backend Backend
	cache   SnapshotCache
	logger  logger.Logger
	obs     *observability.Observability

	mu            sync.Mutex
	notifications []models.Notification
	unreadCount   int
	isLoading     bool
	isError       bool
	primed        bool // true once the store holds live (non-cached) data
	subs          []chan Snapshot
}

// Option configures optional store collaborators.
type Option func(*Store)

// WithCache attaches a snapshot cache.
func WithCache(cache SnapshotCache) Option {
	return func(s *Store) { s.cache = cache }
}

// WithObservability attaches an OpenTelemetry recorder.
func WithObservability(obs *observability.Observability) Option {
	return func(s *Store) { s.obs = obs }
}

// New creates an empty store bound to one authenticated session. It is
// discarded on logout; a fresh session gets a fresh store.
func New(backend Backend, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log.WithFields(map[string]interface{}{"component": "notification-store"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch replaces the snapshot wholesale with the server response. The server
// is the source of truth for both the list and the unread count after every
// successful fetch; on failure the last-known-good snapshot is preserved.
func (s *Store) Fetch(ctx context.Context) error {
	done := s.begin("fetch")

	resp, err := s.backend.List(ctx)
	if err != nil {
		done(err)
		return err
	}

	s.mu.Lock()
	s.notifications = append([]models.Notification{}, resp.Data...)
	s.unreadCount = resp.UnreadCount
	s.primed = true
	s.publishLocked()
	s.mu.Unlock()

	done(nil)
	s.saveToCache(ctx)
	return nil
}

// MarkRead marks one notification read on the server and patches the local
// copy. The counter only moves on a false-to-true transition of IsRead, so a
// duplicate call cannot double-decrement, and it never goes below zero.
// An id the client does not hold is patched nowhere locally; the server call
// still issues and its verdict stands.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	done := s.begin("mark_read")

	resp, err := s.backend.MarkRead(ctx, id)
	if err != nil {
		done(err)
		return err
	}

	s.mu.Lock()
	if idx := s.indexOfLocked(id); idx >= 0 {
		wasUnread := !s.notifications[idx].IsRead
		s.notifications[idx] = resp.Data
		if wasUnread && resp.Data.IsRead {
			s.decrementUnreadLocked()
		}
		s.publishLocked()
	}
	s.mu.Unlock()

	done(nil)
	s.saveToCache(ctx)
	return nil
}

// Create sends the draft and appends the server-returned record. The counter
// grows by one only when the created record arrives unread.
func (s *Store) Create(ctx context.Context, draft models.NotificationDraft) error {
	done := s.begin("create")

	resp, err := s.backend.Create(ctx, draft)
	if err != nil {
		done(err)
		return err
	}

	s.mu.Lock()
	s.notifications = append(s.notifications, resp.Data)
	if !resp.Data.IsRead {
		s.unreadCount++
	}
	s.primed = true
	s.publishLocked()
	s.mu.Unlock()

	done(nil)
	s.saveToCache(ctx)
	return nil
}

// Delete removes the notification on the server and locally. The counter
// shrinks only when the removed record was unread at removal time, floored
// at zero.
func (s *Store) Delete(ctx context.Context, id string) error {
	done := s.begin("delete")

	if _, err := s.backend.Delete(ctx, id); err != nil {
		done(err)
		return err
	}

	s.mu.Lock()
	if idx := s.indexOfLocked(id); idx >= 0 {
		wasUnread := !s.notifications[idx].IsRead
		s.notifications = append(s.notifications[:idx], s.notifications[idx+1:]...)
		if wasUnread {
			s.decrementUnreadLocked()
		}
		s.publishLocked()
	}
	s.mu.Unlock()

	done(nil)
	s.saveToCache(ctx)
	return nil
}

// Snapshot returns a copy of the current notifications and counter.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadCount returns the current client-side unread counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// IsLoading reports whether an operation is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// IsError reports whether the most recent operation failed.
func (s *Store) IsError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isError
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Slow consumers only ever see the latest snapshot; intermediate ones are
// dropped rather than blocking a store operation.
func (s *Store) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// LoadCached installs the cached last-known-good snapshot, if any, so
// surfaces can render stale badges before the first fetch completes. It is
// a no-op once the store holds live data.
func (s *Store) LoadCached(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	snap, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.Warn("snapshot cache load failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	if !s.primed {
		s.notifications = snap.Notifications
		s.unreadCount = snap.UnreadCount
		s.publishLocked()
	}
	s.mu.Unlock()
	return nil
}

// begin marks an operation in flight and returns the completion callback
// that settles isLoading/isError and records metrics.
func (s *Store) begin(operation string) func(error) {
	s.mu.Lock()
	s.isLoading = true
	s.mu.Unlock()

	start := time.Now()
	return func(err error) {
		s.mu.Lock()
		s.isLoading = false
		s.isError = err != nil
		s.mu.Unlock()

		outcome := "success"
		if err != nil {
			outcome = "failure"
			s.logger.Warn("operation failed", map[string]interface{}{
				"operation": operation,
				"error":     err.Error(),
			})
		}

		metrics.StoreOperationsTotal.WithLabelValues(operation, outcome).Inc()
		metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if s.obs != nil {
			s.obs.RecordOperation(context.Background(), operation, outcome)
			s.obs.RecordDuration(context.Background(), time.Since(start), operation)
		}
	}
}

func (s *Store) indexOfLocked(id string) int {
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) decrementUnreadLocked() {
	if s.unreadCount > 0 {
		s.unreadCount--
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Notifications: append([]models.Notification(nil), s.notifications...),
		UnreadCount:   s.unreadCount,
	}
}

// publishLocked pushes the gauge and fans the new snapshot out to
// subscribers. Callers must hold s.mu.
func (s *Store) publishLocked() {
	metrics.UnreadCount.Set(float64(s.unreadCount))

	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// saveToCache persists the current snapshot best-effort.
func (s *Store) saveToCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	snap := s.Snapshot()
	snap.SavedAt = time.Now().UTC()
	if err := s.cache.Save(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache save failed", map[string]interface{}{"error": err.Error()})
	}
}
