package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sspartak/football-app/internal/models"
	"github.com/Sspartak/football-app/internal/repository"
	"github.com/Sspartak/football-app/pkg/rabbitmq"
	"gorm.io/gorm"
)

var ErrMatchNotFound = errors.New("match not found")

// VoteParams identifies the voting user; Nickname is used when the vote
// creates the user's first slot for the match.
type VoteParams struct {
	MatchID  string
	UserID   string
	Nickname string
}

// ManualSlotParams describes a placeholder entry an organizer types in for
// someone without an account.
type ManualSlotParams struct {
	MatchID         string
	Nickname        string
	AddedByUserID   string
	AddedByNickname string
}

// VoteResult reports whether the action cost the user an assigned reserve
// queue place, so the caller can surface a specific message.
type VoteResult struct {
	LostReservePosition bool `json:"lost_reserve_position"`
}

type VotingService interface {
	PressGoing(ctx context.Context, p VoteParams) error
	PressReserve(ctx context.Context, p VoteParams) error
	PressNotGoing(ctx context.Context, p VoteParams) (*VoteResult, error)
	RemoveUser(ctx context.Context, matchID, userID string) (*VoteResult, error)
	RemoveSlot(ctx context.Context, slotID string) (*VoteResult, error)
	AddManualSlot(ctx context.Context, p ManualSlotParams) (*models.MatchSlot, error)
	Reconcile(ctx context.Context, matchID string) error
	ListSlots(ctx context.Context, matchID string, status *models.SlotStatus) ([]models.MatchSlot, error)
}

type votingService struct {
	slotRepo  repository.SlotRepository
	matchRepo repository.MatchRepository
	publisher *rabbitmq.Publisher
}

func NewVotingService(slotRepo repository.SlotRepository, matchRepo repository.MatchRepository, publisher *rabbitmq.Publisher) VotingService {
	return &votingService{
		slotRepo:  slotRepo,
		matchRepo: matchRepo,
		publisher: publisher,
	}
}

func (s *votingService) PressGoing(ctx context.Context, p VoteParams) error {
	if err := requireID(p.MatchID, ErrMatchIDRequired); err != nil {
		return err
	}
	if err := requireID(p.UserID, ErrUserIDRequired); err != nil {
		return err
	}

	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := s.lockMatch(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}

		current, err := s.slotRepo.GetUserSlot(ctx, tx, p.MatchID, p.UserID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == models.StatusGoing {
			return nil
		}

		slots, err := s.slotRepo.GetSlots(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}
		limit := match.GoingLimit()
		goingCount := countStatus(slots, models.StatusGoing)
		now := time.Now().UTC()

		// When the going list is full a reserve user keeps their queue
		// place; anyone else joins the reserve tail. Promotion stays off so
		// toggling going/reserve cannot be used to jump the queue.
		if goingCount >= limit {
			if current != nil && current.Status == models.StatusReserve {
				return nil
			}
			if current != nil {
				err = s.slotRepo.UpdateSlotState(ctx, tx, current.ID, map[string]any{
					"status":           models.StatusReserve,
					"desire":           models.DesireReserve,
					"reserve_position": nil,
					"created_at":       now,
				})
			} else {
				err = s.slotRepo.UpsertUserDesire(ctx, tx, repository.UpsertDesireParams{
					MatchID:       p.MatchID,
					UserID:        p.UserID,
					Nickname:      p.Nickname,
					Desire:        models.DesireReserve,
					InitialStatus: models.StatusReserve,
				})
			}
			if err != nil {
				return err
			}
			_, err = s.reconcile(ctx, tx, p.MatchID, ReconcileOptions{})
			return err
		}

		// This action fills a seat itself; it must not also promote someone
		// else within the same call.
		if current != nil {
			err = s.slotRepo.UpdateSlotState(ctx, tx, current.ID, map[string]any{
				"status":           models.StatusGoing,
				"desire":           models.DesireGoing,
				"reserve_position": nil,
				"created_at":       now,
			})
		} else {
			err = s.slotRepo.UpsertUserDesire(ctx, tx, repository.UpsertDesireParams{
				MatchID:       p.MatchID,
				UserID:        p.UserID,
				Nickname:      p.Nickname,
				Desire:        models.DesireGoing,
				InitialStatus: models.StatusGoing,
			})
		}
		if err != nil {
			return err
		}
		_, err = s.reconcile(ctx, tx, p.MatchID, ReconcileOptions{})
		return err
	})
	if err != nil {
		return err
	}

	s.publishUpdated(p.MatchID, "press_going")
	return nil
}

func (s *votingService) PressReserve(ctx context.Context, p VoteParams) error {
	if err := requireID(p.MatchID, ErrMatchIDRequired); err != nil {
		return err
	}
	if err := requireID(p.UserID, ErrUserIDRequired); err != nil {
		return err
	}

	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := s.lockMatch(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}

		current, err := s.slotRepo.GetUserSlot(ctx, tx, p.MatchID, p.UserID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == models.StatusReserve {
			return nil
		}

		slots, err := s.slotRepo.GetSlots(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}
		opts := defaultReconcileOptions()
		opts.ForceReservePromotion = vacatesGoingSeat(current, slots, match.GoingLimit())
		now := time.Now().UTC()

		// Moving to reserve always re-queues at the tail.
		if current != nil {
			err = s.slotRepo.UpdateSlotState(ctx, tx, current.ID, map[string]any{
				"status":           models.StatusReserve,
				"desire":           models.DesireReserve,
				"reserve_position": nil,
				"created_at":       now,
			})
		} else {
			err = s.slotRepo.UpsertUserDesire(ctx, tx, repository.UpsertDesireParams{
				MatchID:       p.MatchID,
				UserID:        p.UserID,
				Nickname:      p.Nickname,
				Desire:        models.DesireReserve,
				InitialStatus: models.StatusReserve,
			})
		}
		if err != nil {
			return err
		}
		_, err = s.reconcile(ctx, tx, p.MatchID, opts)
		return err
	})
	if err != nil {
		return err
	}

	s.publishUpdated(p.MatchID, "press_reserve")
	return nil
}

func (s *votingService) PressNotGoing(ctx context.Context, p VoteParams) (*VoteResult, error) {
	if err := requireID(p.MatchID, ErrMatchIDRequired); err != nil {
		return nil, err
	}
	if err := requireID(p.UserID, ErrUserIDRequired); err != nil {
		return nil, err
	}

	result := &VoteResult{}
	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := s.lockMatch(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}

		current, err := s.slotRepo.GetUserSlot(ctx, tx, p.MatchID, p.UserID)
		if err != nil {
			return err
		}
		slots, err := s.slotRepo.GetSlots(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}

		result.LostReservePosition = current != nil &&
			current.Status == models.StatusReserve && current.ReservePosition != nil

		opts := defaultReconcileOptions()
		opts.ForceReservePromotion = vacatesGoingSeat(current, slots, match.GoingLimit())

		err = s.slotRepo.UpsertUserDesire(ctx, tx, repository.UpsertDesireParams{
			MatchID:  p.MatchID,
			UserID:   p.UserID,
			Nickname: p.Nickname,
			Desire:   models.DesireNotGoing,
		})
		if err != nil {
			return err
		}
		_, err = s.reconcile(ctx, tx, p.MatchID, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(p.MatchID, "press_not_going")
	return result, nil
}

func (s *votingService) RemoveUser(ctx context.Context, matchID, userID string) (*VoteResult, error) {
	if err := requireID(matchID, ErrMatchIDRequired); err != nil {
		return nil, err
	}
	if err := requireID(userID, ErrUserIDRequired); err != nil {
		return nil, err
	}

	result := &VoteResult{}
	removed := false
	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := s.lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}

		current, err := s.slotRepo.GetUserSlot(ctx, tx, matchID, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return nil
		}
		removed = true

		slots, err := s.slotRepo.GetSlots(ctx, tx, matchID)
		if err != nil {
			return err
		}

		result.LostReservePosition = current.Status == models.StatusReserve &&
			current.ReservePosition != nil
		opts := defaultReconcileOptions()
		opts.ForceReservePromotion = vacatesGoingSeat(current, slots, match.GoingLimit())

		if err := s.slotRepo.RemoveUserSlot(ctx, tx, matchID, userID); err != nil {
			return err
		}
		_, err = s.reconcile(ctx, tx, matchID, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if removed {
		s.publishUpdated(matchID, "remove_user")
	}
	return result, nil
}

func (s *votingService) RemoveSlot(ctx context.Context, slotID string) (*VoteResult, error) {
	if err := requireID(slotID, ErrSlotIDRequired); err != nil {
		return nil, err
	}

	result := &VoteResult{}
	matchID := ""
	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := s.slotRepo.GetSlotByID(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if current == nil {
			return nil
		}
		matchID = current.MatchID

		match, err := s.lockMatch(ctx, tx, current.MatchID)
		if err != nil {
			return err
		}
		slots, err := s.slotRepo.GetSlots(ctx, tx, current.MatchID)
		if err != nil {
			return err
		}

		result.LostReservePosition = current.Status == models.StatusReserve &&
			current.ReservePosition != nil
		opts := defaultReconcileOptions()
		opts.ForceReservePromotion = vacatesGoingSeat(current, slots, match.GoingLimit())

		if err := s.slotRepo.RemoveSlotByID(ctx, tx, slotID); err != nil {
			return err
		}
		_, err = s.reconcile(ctx, tx, current.MatchID, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if matchID != "" {
		s.publishUpdated(matchID, "remove_slot")
	}
	return result, nil
}

func (s *votingService) AddManualSlot(ctx context.Context, p ManualSlotParams) (*models.MatchSlot, error) {
	if err := requireID(p.MatchID, ErrMatchIDRequired); err != nil {
		return nil, err
	}
	if err := requireID(p.Nickname, ErrNicknameRequired); err != nil {
		return nil, err
	}

	var created *models.MatchSlot
	err := s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		match, err := s.lockMatch(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}
		slots, err := s.slotRepo.GetSlots(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}

		status := models.StatusGoing
		if countStatus(slots, models.StatusGoing) >= match.GoingLimit() {
			status = models.StatusReserve
		}

		slot := &models.MatchSlot{
			MatchID:  p.MatchID,
			Nickname: p.Nickname,
			Status:   status,
		}
		if p.AddedByUserID != "" {
			slot.AddedByUserID = &p.AddedByUserID
		}
		if p.AddedByNickname != "" {
			slot.AddedByNickname = &p.AddedByNickname
		}
		if err := s.slotRepo.Insert(ctx, tx, slot); err != nil {
			return err
		}
		created = slot

		// Adding a guest must not promote somebody else.
		_, err = s.reconcile(ctx, tx, p.MatchID, ReconcileOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(p.MatchID, "add_manual_slot")
	return created, nil
}

// Reconcile runs a standalone pass with default promotion policy, e.g. after
// an out-of-band change to the match's player limit.
func (s *votingService) Reconcile(ctx context.Context, matchID string) error {
	if err := requireID(matchID, ErrMatchIDRequired); err != nil {
		return err
	}
	return s.slotRepo.Transaction(ctx, func(tx *gorm.DB) error {
		_, err := s.reconcile(ctx, tx, matchID, defaultReconcileOptions())
		return err
	})
}

func (s *votingService) ListSlots(ctx context.Context, matchID string, status *models.SlotStatus) ([]models.MatchSlot, error) {
	if err := requireID(matchID, ErrMatchIDRequired); err != nil {
		return nil, err
	}
	slots, err := s.slotRepo.GetSlots(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return slots, nil
	}
	filtered := make([]models.MatchSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Status == *status {
			filtered = append(filtered, slot)
		}
	}
	return filtered, nil
}

func (s *votingService) lockMatch(ctx context.Context, tx *gorm.DB, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.FindByIDForUpdate(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// vacatesGoingSeat reports whether demoting or removing current opens a seat
// that this same action should hand to the reserve queue: the slot held a
// going place, someone is waiting, and the match is at or over its limit.
func vacatesGoingSeat(current *models.MatchSlot, slots []models.MatchSlot, limit int) bool {
	if current == nil || current.Status != models.StatusGoing {
		return false
	}
	return countStatus(slots, models.StatusReserve) > 0 &&
		countStatus(slots, models.StatusGoing) >= limit
}

func countStatus(slots []models.MatchSlot, status models.SlotStatus) int {
	n := 0
	for _, slot := range slots {
		if slot.Status == status {
			n++
		}
	}
	return n
}

type votingUpdatedEvent struct {
	MatchID string `json:"match_id"`
	Action  string `json:"action"`
}

func (s *votingService) publishUpdated(matchID, action string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish("voting.updated", votingUpdatedEvent{MatchID: matchID, Action: action})
}
