package api

import (
	"time"

	"parlayz/models"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Username string `json:"username"`
}

type signupResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.services.Users.Register(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	token, expiresAt, err := s.jwt.Sign(user)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, signupResponse{User: user, Token: token, ExpiresAt: expiresAt})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.services.Users.GetByID(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, user)
}

func (s *Server) history(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	entries, err := s.services.Users.GetHistory(c.Request.Context(), actorFrom(c).UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, entries)
}
