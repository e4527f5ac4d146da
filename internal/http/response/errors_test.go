package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondDomainError(c, err)

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, env
}

func TestRespondDomainErrorUsesBoundaryStatusAndCode(t *testing.T) {
	status, env := respond(t, apierr.BadRequest("BAD_ID", fmt.Errorf("not a uuid")))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Error.Code != "BAD_ID" {
		t.Fatalf("expected code BAD_ID, got %q", env.Error.Code)
	}
	if env.Error.Message != "not a uuid" {
		t.Fatalf("expected the wrapped message, got %q", env.Error.Message)
	}
}

func TestRespondDomainErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad input", pkgerrors.ErrValidation), http.StatusBadRequest, "VALIDATION"},
		{fmt.Errorf("%w: gone", pkgerrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: paused", pkgerrors.ErrInvalidState), http.StatusConflict, "INVALID_STATE"},
		{fmt.Errorf("%w: stale task", pkgerrors.ErrOutOfSequence), http.StatusConflict, "OUT_OF_SEQUENCE"},
		{fmt.Errorf("%w: version moved", pkgerrors.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: provider", pkgerrors.ErrUpstreamTimeout), http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, env := respond(t, tc.err)
		if status != tc.status || env.Error.Code != tc.code {
			t.Fatalf("error %v: want %d/%s, got %d/%s", tc.err, tc.status, tc.code, status, env.Error.Code)
		}
	}
}
