package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Sspartak/football-app/internal/models"
	"github.com/Sspartak/football-app/internal/repository"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for both repositories. Transactions are
// pass-through; writes are counted so tests can assert reconciliation
// idempotence.
type fakeStore struct {
	match  models.Match
	slots  []*models.MatchSlot
	writes int
	seq    int
	base   time.Time
}

const testMatchID = "match-1"

func newFakeStore(maxPlayers int) *fakeStore {
	return &fakeStore{
		match: models.Match{ID: testMatchID, Name: "Friday game", MaxPlayers: maxPlayers},
		base:  time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) nextTime() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Minute)
}

func (f *fakeStore) addUserSlot(userID string, status models.SlotStatus, desire *models.SlotDesire, pos *int) *models.MatchSlot {
	uid := userID
	slot := &models.MatchSlot{
		ID:              fmt.Sprintf("slot-%s", userID),
		MatchID:         testMatchID,
		UserID:          &uid,
		Nickname:        userID,
		Status:          status,
		Desire:          desire,
		ReservePosition: pos,
		CreatedAt:       f.nextTime(),
	}
	f.slots = append(f.slots, slot)
	return slot
}

func (f *fakeStore) addManual(name string, status models.SlotStatus, pos *int) *models.MatchSlot {
	slot := &models.MatchSlot{
		ID:              fmt.Sprintf("manual-%s", name),
		MatchID:         testMatchID,
		Nickname:        name,
		Status:          status,
		ReservePosition: pos,
		CreatedAt:       f.nextTime(),
	}
	f.slots = append(f.slots, slot)
	return slot
}

func (f *fakeStore) slot(id string) *models.MatchSlot {
	for _, s := range f.slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *fakeStore) userSlot(userID string) *models.MatchSlot {
	for _, s := range f.slots {
		if s.UserID != nil && *s.UserID == userID {
			return s
		}
	}
	return nil
}

func desireOf(d models.SlotDesire) *models.SlotDesire { return &d }

func posOf(p int) *int { return &p }

// --- repository.SlotRepository ---

func (f *fakeStore) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeStore) GetSlots(_ context.Context, _ *gorm.DB, matchID string) ([]models.MatchSlot, error) {
	var out []models.MatchSlot
	for _, s := range f.slots {
		if s.MatchID == matchID {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) GetUserSlot(_ context.Context, _ *gorm.DB, matchID, userID string) (*models.MatchSlot, error) {
	for _, s := range f.slots {
		if s.MatchID == matchID && s.UserID != nil && *s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSlotByID(_ context.Context, _ *gorm.DB, slotID string) (*models.MatchSlot, error) {
	if s := f.slot(slotID); s != nil {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, _ *gorm.DB, slot *models.MatchSlot) error {
	f.writes++
	if slot.ID == "" {
		slot.ID = fmt.Sprintf("slot-gen-%d", f.seq+1)
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = f.nextTime()
	}
	copied := *slot
	f.slots = append(f.slots, &copied)
	return nil
}

func (f *fakeStore) UpsertUserDesire(ctx context.Context, tx *gorm.DB, p repository.UpsertDesireParams) error {
	if existing := f.userSlot(p.UserID); existing != nil {
		f.writes++
		d := p.Desire
		existing.Desire = &d
		return nil
	}

	status := p.InitialStatus
	if status == "" {
		if p.Desire == models.DesireNotGoing {
			status = models.StatusNotGoing
		} else {
			status = models.StatusReserve
		}
	}
	uid := p.UserID
	d := p.Desire
	return f.Insert(ctx, tx, &models.MatchSlot{
		MatchID:  p.MatchID,
		UserID:   &uid,
		Nickname: p.Nickname,
		Status:   status,
		Desire:   &d,
	})
}

func (f *fakeStore) UpdateSlotState(_ context.Context, _ *gorm.DB, slotID string, patch map[string]any) error {
	s := f.slot(slotID)
	if s == nil {
		return gorm.ErrRecordNotFound
	}
	f.writes++
	if v, ok := patch["status"]; ok {
		s.Status = v.(models.SlotStatus)
	}
	if v, ok := patch["desire"]; ok {
		d := v.(models.SlotDesire)
		s.Desire = &d
	}
	if v, ok := patch["reserve_position"]; ok {
		if v == nil {
			s.ReservePosition = nil
		} else {
			p := v.(int)
			s.ReservePosition = &p
		}
	}
	if v, ok := patch["created_at"]; ok {
		s.CreatedAt = v.(time.Time)
	}
	return nil
}

func (f *fakeStore) RemoveUserSlot(_ context.Context, _ *gorm.DB, matchID, userID string) error {
	f.writes++
	for i, s := range f.slots {
		if s.MatchID == matchID && s.UserID != nil && *s.UserID == userID {
			f.slots = append(f.slots[:i], f.slots[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) RemoveSlotByID(_ context.Context, _ *gorm.DB, slotID string) error {
	f.writes++
	for i, s := range f.slots {
		if s.ID == slotID {
			f.slots = append(f.slots[:i], f.slots[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- repository.MatchRepository ---

func (f *fakeStore) FindByID(_ context.Context, id string) (*models.Match, error) {
	if id != f.match.ID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := f.match
	return &copied, nil
}

func (f *fakeStore) FindByIDForUpdate(_ context.Context, _ *gorm.DB, id string) (*models.Match, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeStore) UpdateLimitEverReached(_ context.Context, _ *gorm.DB, id string, value bool) error {
	f.writes++
	f.match.LimitEverReached = value
	return nil
}

func newTestService(f *fakeStore) *votingService {
	return &votingService{slotRepo: f, matchRepo: f}
}
