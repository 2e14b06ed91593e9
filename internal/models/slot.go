package models

import "time"

type SlotStatus string

// Status values kept as stored in the legacy match_slots table.
const (
	StatusGoing    SlotStatus = "go"
	StatusReserve  SlotStatus = "reserve"
	StatusNotGoing SlotStatus = "not_go"
)

type SlotDesire string

const (
	DesireGoing    SlotDesire = "going"
	DesireReserve  SlotDesire = "reserve"
	DesireNotGoing SlotDesire = "not_going"
)

func IsSlotDesire(value string) bool {
	switch SlotDesire(value) {
	case DesireGoing, DesireReserve, DesireNotGoing:
		return true
	}
	return false
}

// MatchSlot is one registration against a match. UserID is nil for manual
// entries typed in by an organizer; those never carry desire semantics but
// count against capacity and hold reserve queue places like everyone else.
type MatchSlot struct {
	ID              string      `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID         string      `gorm:"not null;index" json:"match_id"`
	UserID          *string     `gorm:"index" json:"user_id,omitempty"`
	Nickname        string      `gorm:"not null" json:"nickname"`
	Status          SlotStatus  `gorm:"type:varchar(20);not null" json:"status"`
	Desire          *SlotDesire `gorm:"type:varchar(20)" json:"desire,omitempty"`
	ReservePosition *int        `json:"reserve_position,omitempty"`
	AddedByUserID   *string     `json:"added_by_user_id,omitempty"`
	AddedByNickname *string     `json:"added_by_nickname,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsManual reports whether the slot is an organizer-added placeholder
// rather than a real user's registration.
func (s *MatchSlot) IsManual() bool {
	return s.UserID == nil
}

// NormalizedDesire maps a slot to its canonical desire. Legacy rows may
// lack an explicit desire, in which case it is inferred from the status.
func (s *MatchSlot) NormalizedDesire() SlotDesire {
	if s.Desire != nil {
		return *s.Desire
	}
	switch s.Status {
	case StatusGoing:
		return DesireGoing
	case StatusReserve:
		return DesireReserve
	default:
		return DesireNotGoing
	}
}
