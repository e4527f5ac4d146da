package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lucavoss/adeptly-backend/internal/http/response"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

type RecommendationHandler struct {
	recommender *services.Recommender
	log         *logger.Logger
}

func NewRecommendationHandler(recommender *services.Recommender, baseLog *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
		log:         baseLog.With("handler", "RecommendationHandler"),
	}
}

// Analyze evaluates one learner's metrics and records the verdict for review.
func (h *RecommendationHandler) Analyze(c *gin.Context) {
	var in services.LearnerMetrics
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_JSON", err))
		return
	}
	rec, err := h.recommender.AnalyzeAndRecord(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, rec)
}

// BatchAnalyze evaluates a set of learners and returns verdicts ordered by
// priority. Invalid entries are dropped, not fatal.
func (h *RecommendationHandler) BatchAnalyze(c *gin.Context) {
	var in struct {
		Learners []services.LearnerMetrics `json:"learners"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("BAD_JSON", err))
		return
	}
	recs := h.recommender.Batch(c.Request.Context(), in.Learners)
	response.RespondOK(c, gin.H{"recommendations": recs, "count": len(recs)})
}
