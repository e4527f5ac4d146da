package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	"github.com/lucavoss/adeptly-backend/internal/http/response"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
	states   repos.SkillStateRepo
	log      *logger.Logger
}

func NewProgressHandler(progress services.ProgressService, states repos.SkillStateRepo, baseLog *logger.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress: progress,
		states:   states,
		log:      baseLog.With("handler", "ProgressHandler"),
	}
}

// Get returns the derived subject rollup, computing it on first request.
func (h *ProgressHandler) Get(c *gin.Context) {
	studentID, subject, ok := h.pathKeys(c)
	if !ok {
		return
	}
	row, err := h.progress.Get(c.Request.Context(), studentID, subject)
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		row, err = h.progress.Recompute(c.Request.Context(), studentID, subject)
	}
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, row)
}

// Skills returns the raw per-skill mastery states behind the rollup.
func (h *ProgressHandler) Skills(c *gin.Context) {
	studentID, subject, ok := h.pathKeys(c)
	if !ok {
		return
	}
	rows, err := h.states.ListByStudentSubject(c.Request.Context(), nil, studentID, subject)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"skills": rows})
}

func (h *ProgressHandler) pathKeys(c *gin.Context) (uuid.UUID, string, bool) {
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_ID", err))
		return uuid.Nil, "", false
	}
	subject := c.Param("subject")
	if subject == "" {
		response.RespondDomainError(c, apierr.BadRequest("BAD_SUBJECT", nil))
		return uuid.Nil, "", false
	}
	return studentID, subject, true
}
