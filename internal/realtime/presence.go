package realtime

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"trackline/internal/domain"
)

// Tracker ведет эфемерный список пользователей, открывших ресурс.
// Хранение по ключу (resource, user), не больше одной живой записи на пару.
// TTL считается на каждую запись отдельно: повторный join другого
// пользователя не продлевает чужие записи.
type Tracker struct {
	ttl time.Duration
	log *zap.Logger

	mu        sync.Mutex
	resources map[string]map[string]*domain.PresenceEntry

	stopOnce sync.Once
	done     chan struct{}
}

func NewTracker(ttl time.Duration, log *zap.Logger) *Tracker {
	return &Tracker{
		ttl:       ttl,
		log:       log,
		resources: make(map[string]map[string]*domain.PresenceEntry),
		done:      make(chan struct{}),
	}
}

// Join добавляет или освежает запись и возвращает консистентный roster.
// При повторном join сохраняется исходный joined_at.
func (t *Tracker) Join(resourceId string, user domain.UserSnapshot) []domain.PresenceEntry {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.resources[resourceId]
	if !ok {
		entries = make(map[string]*domain.PresenceEntry)
		t.resources[resourceId] = entries
	}

	if existing, ok := entries[user.Id]; ok && existing.ExpiresAt.After(now) {
		existing.User = user
		existing.ExpiresAt = now.Add(t.ttl)
	} else {
		if !ok {
			presenceEntriesGauge.Inc()
		}
		entries[user.Id] = &domain.PresenceEntry{
			ResourceId: resourceId,
			User:       user,
			JoinedAt:   now,
			ExpiresAt:  now.Add(t.ttl),
		}
	}

	return t.rosterLocked(resourceId, now)
}

// Leave убирает запись; отсутствие записи это no-op
func (t *Tracker) Leave(resourceId, userId string) []domain.PresenceEntry {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if entries, ok := t.resources[resourceId]; ok {
		if _, exists := entries[userId]; exists {
			delete(entries, userId)
			presenceEntriesGauge.Dec()
		}
		if len(entries) == 0 {
			delete(t.resources, resourceId)
		}
	}

	return t.rosterLocked(resourceId, now)
}

// Roster возвращает живые записи по joined_at по возрастанию.
// Протухшие записи отфильтровываются при чтении, даже если reaper
// до них еще не дошел.
func (t *Tracker) Roster(resourceId string) []domain.PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rosterLocked(resourceId, time.Now())
}

func (t *Tracker) rosterLocked(resourceId string, now time.Time) []domain.PresenceEntry {
	entries := t.resources[resourceId]
	roster := make([]domain.PresenceEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ExpiresAt.After(now) {
			roster = append(roster, *entry)
		}
	}

	sort.Slice(roster, func(i, j int) bool {
		if roster[i].JoinedAt.Equal(roster[j].JoinedAt) {
			return roster[i].User.Id < roster[j].User.Id
		}
		return roster[i].JoinedAt.Before(roster[j].JoinedAt)
	})

	return roster
}

// StartReaper запускает фоновую уборку протухших записей
func (t *Tracker) StartReaper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.reap()
			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *Tracker) reap() {
	now := time.Now()
	removed := 0

	t.mu.Lock()
	for resourceId, entries := range t.resources {
		for userId, entry := range entries {
			if !entry.ExpiresAt.After(now) {
				delete(entries, userId)
				presenceEntriesGauge.Dec()
				removed++
			}
		}
		if len(entries) == 0 {
			delete(t.resources, resourceId)
		}
	}
	t.mu.Unlock()

	if removed > 0 {
		t.log.Debug("reaped stale presence entries", zap.Int("removed", removed))
	}
}
