package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyperifyio/gonarrative/internal/export"
	"github.com/hyperifyio/gonarrative/internal/narrative"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/session"
	"github.com/hyperifyio/gonarrative/internal/table"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondErr maps domain errors to HTTP status codes.
func respondErr(c *gin.Context, err error) {
	status, code := classify(err)
	respondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case table.IsKind(err, table.MissingColumns):
		return http.StatusUnprocessableEntity, "missing_columns"
	case table.IsKind(err, table.MalformedContent):
		return http.StatusUnprocessableEntity, "malformed_content"
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusBadRequest, "unknown_profile"
	case errors.Is(err, session.ErrNoTable):
		return http.StatusConflict, "no_table"
	case errors.Is(err, session.ErrNoProfile):
		return http.StatusConflict, "no_profile"
	case errors.Is(err, session.ErrNoNarrative):
		return http.StatusNotFound, "no_narrative"
	case errors.Is(err, session.ErrGenerationInProgress):
		return http.StatusConflict, "generation_in_progress"
	case errors.Is(err, session.ErrSessionChanged):
		return http.StatusConflict, "session_changed"
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown_format"
	case narrative.IsKind(err, narrative.RequestFailed):
		return http.StatusBadGateway, "generation_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
