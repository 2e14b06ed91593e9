package handler

import (
	"errors"
	"net/http"

	"github.com/Sspartak/football-app/internal/dto"
	"github.com/Sspartak/football-app/internal/models"
	"github.com/Sspartak/football-app/internal/repository"
	"github.com/Sspartak/football-app/internal/service"
	"github.com/labstack/echo/v4"
)

type VotingHandler struct {
	svc       service.VotingService
	matchRepo repository.MatchRepository
}

func NewVotingHandler(svc service.VotingService, matchRepo repository.MatchRepository) *VotingHandler {
	return &VotingHandler{svc: svc, matchRepo: matchRepo}
}

func (h *VotingHandler) RegisterRoutes(e *echo.Echo) {
	matches := e.Group("/api/v1/matches")
	matches.GET("/:id/status", h.GetMatchStatus)
	matches.GET("/:id/slots", h.ListSlots)
	matches.POST("/:id/slots", h.AddManualSlot)
	matches.POST("/:id/vote/going", h.PressGoing)
	matches.POST("/:id/vote/reserve", h.PressReserve)
	matches.POST("/:id/vote/not-going", h.PressNotGoing)
	matches.DELETE("/:id/users/:userId", h.RemoveUser)

	e.DELETE("/api/v1/slots/:id", h.RemoveSlot)
}

func (h *VotingHandler) PressGoing(c echo.Context) error {
	p, err := h.voteParams(c)
	if err != nil {
		return err
	}

	if err := h.svc.PressGoing(c.Request().Context(), p); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VotingHandler) PressReserve(c echo.Context) error {
	p, err := h.voteParams(c)
	if err != nil {
		return err
	}

	if err := h.svc.PressReserve(c.Request().Context(), p); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VotingHandler) PressNotGoing(c echo.Context) error {
	p, err := h.voteParams(c)
	if err != nil {
		return err
	}

	result, err := h.svc.PressNotGoing(c.Request().Context(), p)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, dto.VoteResponse{LostReservePosition: result.LostReservePosition})
}

func (h *VotingHandler) RemoveUser(c echo.Context) error {
	matchID := c.Param("id")
	userID := c.Param("userId")
	if matchID == "" || userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "match id and user id are required")
	}

	result, err := h.svc.RemoveUser(c.Request().Context(), matchID, userID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, dto.VoteResponse{LostReservePosition: result.LostReservePosition})
}

func (h *VotingHandler) RemoveSlot(c echo.Context) error {
	slotID := c.Param("id")
	if slotID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slot id is required")
	}

	result, err := h.svc.RemoveSlot(c.Request().Context(), slotID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, dto.VoteResponse{LostReservePosition: result.LostReservePosition})
}

func (h *VotingHandler) AddManualSlot(c echo.Context) error {
	matchID := c.Param("id")
	if matchID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "match id is required")
	}

	var req dto.ManualSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Nickname == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nickname is required")
	}

	slot, err := h.svc.AddManualSlot(c.Request().Context(), service.ManualSlotParams{
		MatchID:         matchID,
		Nickname:        req.Nickname,
		AddedByUserID:   req.AddedByUserID,
		AddedByNickname: req.AddedByNickname,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToSlotResponse(slot))
}

func (h *VotingHandler) ListSlots(c echo.Context) error {
	matchID := c.Param("id")
	if matchID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "match id is required")
	}

	var status *models.SlotStatus
	if s := c.QueryParam("status"); s != "" {
		ss := models.SlotStatus(s)
		status = &ss
	}

	slots, err := h.svc.ListSlots(c.Request().Context(), matchID, status)
	if err != nil {
		return mapServiceError(err)
	}

	resp := make([]dto.SlotResponse, len(slots))
	for i, s := range slots {
		resp[i] = dto.ToSlotResponse(&s)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *VotingHandler) GetMatchStatus(c echo.Context) error {
	matchID := c.Param("id")
	if matchID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "match id is required")
	}

	match, err := h.matchRepo.FindByID(c.Request().Context(), matchID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "match not found")
	}

	slots, err := h.svc.ListSlots(c.Request().Context(), matchID, nil)
	if err != nil {
		return mapServiceError(err)
	}

	var going, reserve, notGoing int
	for _, s := range slots {
		switch s.Status {
		case models.StatusGoing:
			going++
		case models.StatusReserve:
			reserve++
		case models.StatusNotGoing:
			notGoing++
		}
	}

	return c.JSON(http.StatusOK, dto.MatchStatusResponse{
		ID:               match.ID,
		Name:             match.Name,
		MaxPlayers:       match.GoingLimit(),
		GoingCount:       going,
		ReserveCount:     reserve,
		NotGoingCount:    notGoing,
		SpotsAvailable:   match.GoingLimit() - going,
		LimitEverReached: match.LimitEverReached,
	})
}

func (h *VotingHandler) voteParams(c echo.Context) (service.VoteParams, error) {
	matchID := c.Param("id")
	if matchID == "" {
		return service.VoteParams{}, echo.NewHTTPError(http.StatusBadRequest, "match id is required")
	}

	var req dto.VoteRequest
	if err := c.Bind(&req); err != nil {
		return service.VoteParams{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return service.VoteParams{}, echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	return service.VoteParams{MatchID: matchID, UserID: req.UserID, Nickname: req.Nickname}, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case service.IsValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
