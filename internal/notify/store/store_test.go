package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borrowhub-notify/internal/common/logger"
	"borrowhub-notify/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type mockBackend struct {
	ListFunc     func(ctx context.Context) (*models.ListResponse, error)
	CreateFunc   func(ctx context.Context, draft models.NotificationDraft) (*models.ItemResponse, error)
	MarkReadFunc func(ctx context.Context, id string) (*models.ItemResponse, error)
	DeleteFunc   func(ctx context.Context, id string) (*models.MessageResponse, error)
}

func (m *mockBackend) List(ctx context.Context) (*models.ListResponse, error) {
	return m.ListFunc(ctx)
}

func (m *mockBackend) Create(ctx context.Context, draft models.NotificationDraft) (*models.ItemResponse, error) {
	return m.CreateFunc(ctx, draft)
}

func (m *mockBackend) MarkRead(ctx context.Context, id string) (*models.ItemResponse, error) {
	return m.MarkReadFunc(ctx, id)
}

func (m *mockBackend) Delete(ctx context.Context, id string) (*models.MessageResponse, error) {
	return m.DeleteFunc(ctx, id)
}

type mockCache struct {
	saved    []Snapshot
	loadSnap *Snapshot
	loadErr  error
}

func (m *mockCache) Save(ctx context.Context, snap Snapshot) error {
	m.saved = append(m.saved, snap)
	return nil
}

func (m *mockCache) Load(ctx context.Context) (*Snapshot, error) {
	return m.loadSnap, m.loadErr
}

// ==========================
// Test Helper Functions
// ==========================

func notif(id string, read bool) models.Notification {
	return models.Notification{
		ID:        id,
		Title:     "title-" + id,
		Message:   "message-" + id,
		Type:      models.TypeInfo,
		IsRead:    read,
		CreatedAt: "2026-01-15T10:00:00Z",
	}
}

func markedRead(n models.Notification) models.Notification {
	n.IsRead = true
	return n
}

// ==========================
// Fetch
// ==========================

func TestStore_Fetch_ReplacesSnapshotWholesale(t *testing.T) {
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{
				Data:        []models.Notification{notif("n1", false), notif("n2", true)},
				UnreadCount: 1,
			}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))

	require.NoError(t, s.Fetch(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Notifications, 2)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.False(t, s.IsError())
	assert.False(t, s.IsLoading())
}

func TestStore_Fetch_RepeatedCallsConverge(t *testing.T) {
	resp := &models.ListResponse{
		Data:        []models.Notification{notif("n1", false), notif("n2", false), notif("n3", true)},
		UnreadCount: 2,
	}
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) { return resp, nil },
	}
	s := New(backend, logger.NewTestLogger(t))

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Fetch(context.Background()))
		snap := s.Snapshot()
		assert.Equal(t, resp.Data, snap.Notifications)
		assert.Equal(t, 2, snap.UnreadCount)
	}
}

func TestStore_Fetch_FailurePreservesLastKnownGood(t *testing.T) {
	calls := 0
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			calls++
			if calls == 1 {
				return &models.ListResponse{
					Data:        []models.Notification{notif("n1", false)},
					UnreadCount: 1,
				}, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	s := New(backend, logger.NewTestLogger(t))

	require.NoError(t, s.Fetch(context.Background()))
	before := s.Snapshot()

	err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, s.IsError())
	assert.Equal(t, before, s.Snapshot())

	// A later successful fetch clears the error flag again.
	calls = 0
	require.NoError(t, s.Fetch(context.Background()))
	assert.False(t, s.IsError())
}

// ==========================
// MarkRead
// ==========================

func TestStore_MarkRead_DecrementsOnceOnTransition(t *testing.T) {
	n1 := notif("n1", false)
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{n1, notif("n2", false)}, UnreadCount: 2}, nil
		},
		MarkReadFunc: func(ctx context.Context, id string) (*models.ItemResponse, error) {
			return &models.ItemResponse{Data: markedRead(n1), Message: "marked read"}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))

	require.NoError(t, s.MarkRead(context.Background(), "n1"))
	assert.Equal(t, 1, s.UnreadCount())
	assert.True(t, s.Snapshot().Notifications[0].IsRead)

	// Second call observes IsRead already true: no double-decrement.
	require.NoError(t, s.MarkRead(context.Background(), "n1"))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_MarkRead_UnknownIDIsLocalNoOp(t *testing.T) {
	serverCalled := false
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{notif("n1", false)}, UnreadCount: 1}, nil
		},
		MarkReadFunc: func(ctx context.Context, id string) (*models.ItemResponse, error) {
			serverCalled = true
			return &models.ItemResponse{Data: markedRead(notif("ghost", false))}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))
	before := s.Snapshot()

	require.NoError(t, s.MarkRead(context.Background(), "ghost"))

	// The server call still issues; the client does not guess a local patch.
	assert.True(t, serverCalled)
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_MarkRead_FailureIsolation(t *testing.T) {
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{
				Data:        []models.Notification{notif("n1", false), notif("n2", true)},
				UnreadCount: 1,
			}, nil
		},
		MarkReadFunc: func(ctx context.Context, id string) (*models.ItemResponse, error) {
			return nil, errors.New("network unreachable")
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))
	before := s.Snapshot()

	err := s.MarkRead(context.Background(), "n1")
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
	assert.True(t, s.IsError())
}

// ==========================
// Create
// ==========================

func TestStore_Create(t *testing.T) {
	tests := []struct {
		name           string
		created        models.Notification
		wantUnread     int
		wantListLength int
	}{
		{
			name:           "unread record increments counter",
			created:        notif("new-1", false),
			wantUnread:     1,
			wantListLength: 1,
		},
		{
			name:           "pre-read record leaves counter alone",
			created:        notif("new-2", true),
			wantUnread:     0,
			wantListLength: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{
				CreateFunc: func(ctx context.Context, draft models.NotificationDraft) (*models.ItemResponse, error) {
					return &models.ItemResponse{Data: tt.created, Message: "created"}, nil
				},
			}
			s := New(backend, logger.NewTestLogger(t))

			require.NoError(t, s.Create(context.Background(), models.NotificationDraft{
				Title:   "t",
				Message: "m",
				Type:    models.TypeInfo,
			}))

			snap := s.Snapshot()
			assert.Len(t, snap.Notifications, tt.wantListLength)
			assert.Equal(t, tt.wantUnread, snap.UnreadCount)
		})
	}
}

// ==========================
// Delete
// ==========================

func TestStore_Delete_DecrementsOnlyUnread(t *testing.T) {
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{
				Data:        []models.Notification{notif("n1", false), notif("n2", true)},
				UnreadCount: 1,
			}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) (*models.MessageResponse, error) {
			return &models.MessageResponse{Message: "deleted"}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "n2"))
	assert.Equal(t, 1, s.UnreadCount(), "deleting a read record leaves the counter alone")

	require.NoError(t, s.Delete(context.Background(), "n1"))
	assert.Equal(t, 0, s.UnreadCount())
	assert.Empty(t, s.Snapshot().Notifications)
}

func TestStore_Delete_CounterFloorsAtZero(t *testing.T) {
	// State skew: the server already reported zero unread while the local
	// list still holds an unread record.
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{
				Data:        []models.Notification{notif("n1", false)},
				UnreadCount: 0,
			}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) (*models.MessageResponse, error) {
			return &models.MessageResponse{Message: "deleted"}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "n1"))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_Delete_FailureIsolation(t *testing.T) {
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{notif("n1", false)}, UnreadCount: 1}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) (*models.MessageResponse, error) {
			return nil, errors.New("504 gateway timeout")
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))
	before := s.Snapshot()

	require.Error(t, s.Delete(context.Background(), "n1"))
	assert.Equal(t, before, s.Snapshot())
	assert.True(t, s.IsError())
}

// ==========================
// End-to-end scenario
// ==========================

func TestStore_EndToEndScenario(t *testing.T) {
	n1, n2, n3 := notif("n1", false), notif("n2", false), notif("n3", true)
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{n1, n2, n3}, UnreadCount: 2}, nil
		},
		MarkReadFunc: func(ctx context.Context, id string) (*models.ItemResponse, error) {
			return &models.ItemResponse{Data: markedRead(n1)}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) (*models.MessageResponse, error) {
			return &models.MessageResponse{Message: "deleted"}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))

	assert.Equal(t, 0, s.UnreadCount())
	assert.Empty(t, s.Snapshot().Notifications)

	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, 2, s.UnreadCount())
	assert.Len(t, s.Snapshot().Notifications, 3)

	require.NoError(t, s.MarkRead(context.Background(), "n1"))
	assert.Equal(t, 1, s.UnreadCount())
	assert.True(t, s.Snapshot().Notifications[0].IsRead)

	require.NoError(t, s.Delete(context.Background(), "n2"))
	assert.Equal(t, 0, s.UnreadCount())
	ids := []string{}
	for _, n := range s.Snapshot().Notifications {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n1", "n3"}, ids)
}

// TestStore_StaleFetchOverwritesLocalPatch pins the documented behavior that
// a fetch response landing after a local patch replaces the snapshot with
// whatever the server reported at fetch time. This is accepted behavior, not
// a bug: the counter and list deliberately have dual sources of truth
// between polls.
func TestStore_StaleFetchOverwritesLocalPatch(t *testing.T) {
	n1 := notif("n1", false)
	staleList := &models.ListResponse{Data: []models.Notification{n1}, UnreadCount: 1}
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) { return staleList, nil },
		MarkReadFunc: func(ctx context.Context, id string) (*models.ItemResponse, error) {
			return &models.ItemResponse{Data: markedRead(n1)}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	require.NoError(t, s.Fetch(context.Background()))

	require.NoError(t, s.MarkRead(context.Background(), "n1"))
	assert.Equal(t, 0, s.UnreadCount())

	// A fetch issued before the server reflected the mark-read lands now.
	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, 1, s.UnreadCount())
	assert.False(t, s.Snapshot().Notifications[0].IsRead)
}

// ==========================
// Subscribe / cache
// ==========================

func TestStore_Subscribe_DeliversLatestSnapshot(t *testing.T) {
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{notif("n1", false)}, UnreadCount: 1}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	updates := s.Subscribe()

	require.NoError(t, s.Fetch(context.Background()))

	select {
	case snap := <-updates:
		assert.Equal(t, 1, snap.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestStore_Subscribe_SlowConsumerSeesLatest(t *testing.T) {
	count := 0
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			count++
			return &models.ListResponse{Data: nil, UnreadCount: count}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t))
	updates := s.Subscribe()

	// Nobody reads between these; only the latest snapshot must survive.
	require.NoError(t, s.Fetch(context.Background()))
	require.NoError(t, s.Fetch(context.Background()))
	require.NoError(t, s.Fetch(context.Background()))

	snap := <-updates
	assert.Equal(t, 3, snap.UnreadCount)
}

func TestStore_LoadCached_SeedsEmptyStoreOnly(t *testing.T) {
	cached := &Snapshot{
		Notifications: []models.Notification{notif("old", false)},
		UnreadCount:   1,
	}
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{notif("live", false)}, UnreadCount: 5}, nil
		},
	}

	s := New(backend, logger.NewTestLogger(t), WithCache(&mockCache{loadSnap: cached}))
	require.NoError(t, s.LoadCached(context.Background()))
	assert.Equal(t, 1, s.UnreadCount())

	// Live data wins once fetched; a later cache load must not regress it.
	require.NoError(t, s.Fetch(context.Background()))
	require.NoError(t, s.LoadCached(context.Background()))
	assert.Equal(t, 5, s.UnreadCount())
}

func TestStore_SuccessfulFetchPersistsSnapshot(t *testing.T) {
	c := &mockCache{}
	backend := &mockBackend{
		ListFunc: func(ctx context.Context) (*models.ListResponse, error) {
			return &models.ListResponse{Data: []models.Notification{notif("n1", false)}, UnreadCount: 1}, nil
		},
	}
	s := New(backend, logger.NewTestLogger(t), WithCache(c))

	require.NoError(t, s.Fetch(context.Background()))
	require.Len(t, c.saved, 1)
	assert.Equal(t, 1, c.saved[0].UnreadCount)
	assert.False(t, c.saved[0].SavedAt.IsZero())
}
