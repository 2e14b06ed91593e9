package dto

import (
	"time"

	"github.com/Sspartak/football-app/internal/models"
)

type SlotResponse struct {
	ID              string             `json:"id"`
	MatchID         string             `json:"match_id"`
	UserID          *string            `json:"user_id,omitempty"`
	Nickname        string             `json:"nickname"`
	Status          models.SlotStatus  `json:"status"`
	Desire          *models.SlotDesire `json:"desire,omitempty"`
	ReservePosition *int               `json:"reserve_position,omitempty"`
	AddedByNickname *string            `json:"added_by_nickname,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type VoteResponse struct {
	LostReservePosition bool `json:"lost_reserve_position"`
}

type MatchStatusResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	MaxPlayers       int    `json:"max_players"`
	GoingCount       int    `json:"going_count"`
	ReserveCount     int    `json:"reserve_count"`
	NotGoingCount    int    `json:"not_going_count"`
	SpotsAvailable   int    `json:"spots_available"`
	LimitEverReached bool   `json:"limit_ever_reached"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToSlotResponse(s *models.MatchSlot) SlotResponse {
	return SlotResponse{
		ID:              s.ID,
		MatchID:         s.MatchID,
		UserID:          s.UserID,
		Nickname:        s.Nickname,
		Status:          s.Status,
		Desire:          s.Desire,
		ReservePosition: s.ReservePosition,
		AddedByNickname: s.AddedByNickname,
		CreatedAt:       s.CreatedAt,
	}
}
