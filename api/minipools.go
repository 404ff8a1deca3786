package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createMiniPoolRequest struct {
	Name     string           `json:"name"`
	MinStake *decimal.Decimal `json:"min_stake"`
}

func (s *Server) createMiniPool(c *gin.Context) {
	eventID, ok := pathID(c)
	if !ok {
		return
	}
	var req createMiniPoolRequest
	if !bindJSON(c, &req) {
		return
	}
	pool, err := s.services.MiniPools.CreateMiniPool(c.Request.Context(), actorFrom(c), eventID, req.Name, req.MinStake)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, pool)
}

func (s *Server) getMiniPool(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := s.services.MiniPools.GetMiniPool(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, detail)
}

func (s *Server) joinMiniPool(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req stakeRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.services.MiniPools.JoinMiniPool(c.Request.Context(), actorFrom(c), id, req.Outcome, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, entry)
}
