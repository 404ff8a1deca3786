package api

import (
	"net/http"

	"parlayz/models"
	"parlayz/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createOfferRequest struct {
	Outcome        string           `json:"outcome"`
	Stake          decimal.Decimal  `json:"stake"`
	MinMatchAmount *decimal.Decimal `json:"min_match_amount"`
}

type matchOfferRequest struct {
	Stake   decimal.Decimal `json:"stake"`
	Outcome *string         `json:"outcome"`
}

func (s *Server) listOffers(c *gin.Context) {
	eventID, ok := pathID(c)
	if !ok {
		return
	}
	var status *models.OfferStatus
	if raw := c.Query("status"); raw != "" {
		st := models.OfferStatus(raw)
		switch st {
		case models.OfferStatusOpen, models.OfferStatusMatched, models.OfferStatusSettled, models.OfferStatusCancelled:
		default:
			Error(c, http.StatusBadRequest, "invalid status")
			return
		}
		status = &st
	}
	offers, err := s.services.Offers.ListOffers(c.Request.Context(), eventID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, offers)
}

func (s *Server) createOffer(c *gin.Context) {
	eventID, ok := pathID(c)
	if !ok {
		return
	}
	var req createOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	offer, err := s.services.Offers.CreateOffer(c.Request.Context(), actorFrom(c), service.CreateOfferParams{
		EventID:        eventID,
		Outcome:        req.Outcome,
		Stake:          req.Stake,
		MinMatchAmount: req.MinMatchAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, offer)
}

func (s *Server) matchOffer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req matchOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	offer, err := s.services.Offers.MatchOffer(c.Request.Context(), actorFrom(c), id, req.Stake, req.Outcome)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, offer)
}

func (s *Server) cancelOffer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	offer, err := s.services.Offers.CancelOffer(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, offer)
}
