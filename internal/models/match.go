package models

import "time"

// DefaultGoingLimit is used when a synced match carries no explicit player limit.
const DefaultGoingLimit = 10

type Match struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	RoomID           string    `gorm:"index" json:"room_id"`
	Name             string    `json:"name"`
	MaxPlayers       int       `gorm:"not null" json:"max_players"`
	LimitEverReached bool      `gorm:"not null;default:false" json:"limit_ever_reached"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GoingLimit returns the effective attending capacity, never below 1.
func (m *Match) GoingLimit() int {
	if m.MaxPlayers >= 1 {
		return m.MaxPlayers
	}
	return DefaultGoingLimit
}
