package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/http/response"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

type SuggestionHandler struct {
	review services.ReviewService
	log    *logger.Logger
}

func NewSuggestionHandler(review services.ReviewService, baseLog *logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		review: review,
		log:    baseLog.With("handler", "SuggestionHandler"),
	}
}

func (h *SuggestionHandler) ListPending(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_ID", err))
		return
	}
	rows, err := h.review.ListPending(c.Request.Context(), studentID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": rows})
}

func (h *SuggestionHandler) Review(c *gin.Context) {
	suggestionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_ID", err))
		return
	}
	var in services.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_JSON", err))
		return
	}
	in.SuggestionID = suggestionID
	reviewed, err := h.review.Review(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, reviewed)
}
