package service

import (
	"context"
	"errors"
	"sort"

	"github.com/Sspartak/football-app/internal/models"
	"gorm.io/gorm"
)

// ReconcileOptions tune promotion eligibility for a single reconciliation pass.
type ReconcileOptions struct {
	// AllowReservePromotion permits the historical-fill promotion rule.
	AllowReservePromotion bool
	// ForceReservePromotion fills a seat the triggering action itself vacated.
	ForceReservePromotion bool
}

func defaultReconcileOptions() ReconcileOptions {
	return ReconcileOptions{AllowReservePromotion: true}
}

// reconcileOutcome summarizes a single pass, mostly for logging and events.
type reconcileOutcome struct {
	Writes           int
	PromotedSlotID   string
	LimitEverReached bool
}

// reconcile recomputes the going list, the reserve queue, and the sticky
// limit flag from fresh store state, then writes back only slots whose
// stored fields differ from the target. Demotions are written before
// promotions so the going list never observably exceeds the limit.
func (s *votingService) reconcile(ctx context.Context, tx *gorm.DB, matchID string, opts ReconcileOptions) (*reconcileOutcome, error) {
	match, err := s.matchRepo.FindByIDForUpdate(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	slots, err := s.slotRepo.GetSlots(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	limit := match.GoingLimit()

	var userSlots []models.MatchSlot
	var manualReserve []models.MatchSlot
	manualGoingCount := 0
	for _, slot := range slots {
		switch {
		case !slot.IsManual():
			userSlots = append(userSlots, slot)
		case slot.Status == models.StatusGoing:
			manualGoingCount++
		case slot.Status == models.StatusReserve:
			manualReserve = append(manualReserve, slot)
		}
	}

	availableForUsers := limit - manualGoingCount
	if availableForUsers < 0 {
		availableForUsers = 0
	}

	var desiredGoing []models.MatchSlot
	for _, slot := range userSlots {
		if slot.NormalizedDesire() == models.DesireGoing {
			desiredGoing = append(desiredGoing, slot)
		}
	}
	sort.SliceStable(desiredGoing, func(i, j int) bool {
		return desiredGoing[i].CreatedAt.Before(desiredGoing[j].CreatedAt)
	})

	cut := availableForUsers
	if cut > len(desiredGoing) {
		cut = len(desiredGoing)
	}
	going := desiredGoing[:cut:cut]
	overflow := desiredGoing[cut:]

	// Reserve candidates: declared reserve users, overflow that could not
	// fit, and manual reserve entries. Slots that already hold a queue
	// position keep their relative order; newcomers join at the tail by
	// creation time. Seniority must survive repeated reconciliation.
	seen := make(map[string]bool)
	var reserveQueue []models.MatchSlot
	appendCandidate := func(slot models.MatchSlot) {
		if seen[slot.ID] {
			return
		}
		seen[slot.ID] = true
		reserveQueue = append(reserveQueue, slot)
	}
	for _, slot := range userSlots {
		if slot.NormalizedDesire() == models.DesireReserve {
			appendCandidate(slot)
		}
	}
	for _, slot := range overflow {
		appendCandidate(slot)
	}
	for _, slot := range manualReserve {
		appendCandidate(slot)
	}
	sort.SliceStable(reserveQueue, func(i, j int) bool {
		a, b := reserveQueue[i], reserveQueue[j]
		switch {
		case a.ReservePosition != nil && b.ReservePosition != nil:
			return *a.ReservePosition < *b.ReservePosition
		case a.ReservePosition != nil:
			return true
		case b.ReservePosition != nil:
			return false
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	pendingGoingCount := len(going)
	limitEverReached := match.LimitEverReached
	if manualGoingCount+pendingGoingCount >= limit {
		limitEverReached = true
	}

	// At most one promotion per pass. The historical-fill rule only bridges
	// a single freshly opened seat in a match that was once full; the forced
	// rule serves actions that vacated a going seat themselves.
	promotedID := ""
	var promotedManual *models.MatchSlot
	if len(reserveQueue) > 0 {
		historical := opts.AllowReservePromotion && limitEverReached &&
			manualGoingCount+pendingGoingCount == limit-1
		forced := opts.ForceReservePromotion && manualGoingCount+pendingGoingCount < limit
		if historical || forced {
			head := reserveQueue[0]
			reserveQueue = reserveQueue[1:]
			pendingGoingCount++
			promotedID = head.ID
			if head.IsManual() {
				promotedManual = &head
			} else {
				going = append(going, head)
			}
		}
	}

	// The sticky flag resets only when the match drains below the limit
	// with nobody left waiting.
	if manualGoingCount+pendingGoingCount < limit && len(reserveQueue) == 0 {
		limitEverReached = false
	}

	goingIDs := make(map[string]bool, len(going))
	for _, slot := range going {
		goingIDs[slot.ID] = true
	}
	positions := make(map[string]int, len(reserveQueue))
	for i, slot := range reserveQueue {
		positions[slot.ID] = i + 1
	}

	outcome := &reconcileOutcome{PromotedSlotID: promotedID, LimitEverReached: limitEverReached}

	// Phase 1: demote before promoting so the going list never transiently
	// exceeds the limit while one member is swapped for another.
	for _, slot := range userSlots {
		if goingIDs[slot.ID] {
			continue
		}
		if pos, ok := positions[slot.ID]; ok {
			if err := s.writeSlotTarget(ctx, tx, outcome, slot, models.StatusReserve, models.DesireReserve, &pos); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.writeSlotTarget(ctx, tx, outcome, slot, models.StatusNotGoing, models.DesireNotGoing, nil); err != nil {
			return nil, err
		}
	}

	// Phase 2: settle the final going set.
	for _, slot := range userSlots {
		if !goingIDs[slot.ID] {
			continue
		}
		if err := s.writeSlotTarget(ctx, tx, outcome, slot, models.StatusGoing, models.DesireGoing, nil); err != nil {
			return nil, err
		}
	}

	// Manual entries carry no desire; only their status/queue place moves.
	if promotedManual != nil {
		outcome.Writes++
		err := s.slotRepo.UpdateSlotState(ctx, tx, promotedManual.ID, map[string]any{
			"status":           models.StatusGoing,
			"reserve_position": nil,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, slot := range manualReserve {
		pos, ok := positions[slot.ID]
		if !ok {
			continue
		}
		if slot.ReservePosition != nil && *slot.ReservePosition == pos {
			continue
		}
		outcome.Writes++
		if err := s.slotRepo.UpdateSlotState(ctx, tx, slot.ID, map[string]any{"reserve_position": pos}); err != nil {
			return nil, err
		}
	}

	if limitEverReached != match.LimitEverReached {
		outcome.Writes++
		if err := s.matchRepo.UpdateLimitEverReached(ctx, tx, matchID, limitEverReached); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// writeSlotTarget patches a user slot to its computed target, skipping the
// write entirely when the stored fields already match. Reconciliation runs
// after every mutation; without the skip, untouched rows would thrash on
// every call.
func (s *votingService) writeSlotTarget(ctx context.Context, tx *gorm.DB, outcome *reconcileOutcome, slot models.MatchSlot, status models.SlotStatus, desire models.SlotDesire, position *int) error {
	if slot.Status == status &&
		slot.Desire != nil && *slot.Desire == desire &&
		intPtrEqual(slot.ReservePosition, position) {
		return nil
	}

	patch := map[string]any{
		"status": status,
		"desire": desire,
	}
	if position != nil {
		patch["reserve_position"] = *position
	} else {
		patch["reserve_position"] = nil
	}

	outcome.Writes++
	return s.slotRepo.UpdateSlotState(ctx, tx, slot.ID, patch)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
