package api

import (
	"net/http"

	"parlayz/models"
	"parlayz/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createEventRequest struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	EventType      string           `json:"event_type"`
	Outcomes       []string         `json:"outcomes"`
	StakeAmount    *decimal.Decimal `json:"stake_amount"`
	MaxEntries     *int             `json:"max_entries"`
	CreatorOutcome *string          `json:"creator_outcome"`
	CreatorStake   *decimal.Decimal `json:"creator_stake"`
}

type stakeRequest struct {
	Outcome string          `json:"outcome"`
	Stake   decimal.Decimal `json:"stake"`
}

type settleRequest struct {
	WinningOutcome string `json:"winning_outcome"`
}

func (s *Server) listEvents(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	var status *models.EventStatus
	if raw := c.Query("status"); raw != "" {
		st := models.EventStatus(raw)
		switch st {
		case models.EventStatusOpen, models.EventStatusLocked, models.EventStatusSettled:
		default:
			Error(c, http.StatusBadRequest, "invalid status")
			return
		}
		status = &st
	}
	list, err := s.services.Pools.ListEvents(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, list)
}

func (s *Server) createEvent(c *gin.Context) {
	var req createEventRequest
	if !bindJSON(c, &req) {
		return
	}
	eventType := models.EventType(req.EventType)
	if eventType == "" {
		eventType = models.EventTypePool
	}
	detail, err := s.services.Pools.CreateEvent(c.Request.Context(), actorFrom(c), service.CreateEventParams{
		Title:          req.Title,
		Description:    req.Description,
		EventType:      eventType,
		Outcomes:       req.Outcomes,
		StakeAmount:    req.StakeAmount,
		MaxEntries:     req.MaxEntries,
		CreatorOutcome: req.CreatorOutcome,
		CreatorStake:   req.CreatorStake,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, detail)
}

func (s *Server) getEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := s.services.Pools.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, detail)
}

func (s *Server) joinEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req stakeRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.services.Pools.JoinEvent(c.Request.Context(), actorFrom(c), id, req.Outcome, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, entry)
}

func (s *Server) lockEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	event, err := s.services.Pools.LockEvent(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, event)
}

func (s *Server) settleEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req settleRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := s.services.Settlement.SettleEvent(c.Request.Context(), actorFrom(c), id, req.WinningOutcome)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, result)
}
