package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/http/response"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
	log      *logger.Logger
}

func NewSessionHandler(sessions services.SessionService, baseLog *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      baseLog.With("handler", "SessionHandler"),
	}
}

func (h *SessionHandler) Start(c *gin.Context) {
	var in services.StartSessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_JSON", err))
		return
	}
	out, err := h.sessions.Start(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, out)
}

func (h *SessionHandler) Submit(c *gin.Context) {
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	var in services.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_JSON", err))
		return
	}
	in.SessionID = sessionID
	out, err := h.sessions.Submit(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *SessionHandler) Pause(c *gin.Context) {
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.sessions.Pause(c.Request.Context(), sessionID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session_id": sessionID, "status": "paused"})
}

func (h *SessionHandler) Resume(c *gin.Context) {
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	task, err := h.sessions.Resume(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session_id": sessionID, "status": "active", "current_task": task})
}

func (h *SessionHandler) Abandon(c *gin.Context) {
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	summary, err := h.sessions.Abandon(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

func (h *SessionHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_ID", err))
		return uuid.Nil, false
	}
	return id, true
}
