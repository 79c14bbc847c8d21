package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/resumetailor/internal/analysis"
	"github.com/resumetailor/internal/documents"
	"github.com/resumetailor/internal/export"
	"github.com/resumetailor/internal/review"
	"github.com/resumetailor/internal/scraper"
	"github.com/resumetailor/internal/secrets"
	"github.com/resumetailor/internal/storage"
)

var statusByError = []struct {
	err    error
	status int
}{
	{review.ErrSessionNotFound, http.StatusNotFound},
	{review.ErrSectionNotFound, http.StatusNotFound},
	{review.ErrEditNotFound, http.StatusNotFound},
	{review.ErrConflictNotFound, http.StatusNotFound},
	{storage.ErrNotFound, http.StatusNotFound},
	{documents.ErrNotFound, http.StatusNotFound},
	{export.ErrNotFound, http.StatusNotFound},

	{review.ErrUnresolvedConflicts, http.StatusConflict},

	{storage.ErrInvalidStatus, http.StatusBadRequest},
	{storage.ErrInvalidRecord, http.StatusBadRequest},
	{documents.ErrEmpty, http.StatusBadRequest},
	{documents.ErrNotText, http.StatusBadRequest},
	{documents.ErrInvalidHandle, http.StatusBadRequest},
	{documents.ErrUnreadable, http.StatusBadRequest},
	{export.ErrInvalidName, http.StatusBadRequest},
	{analysis.ErrEmptyResume, http.StatusBadRequest},
	{analysis.ErrEmptyJobDescription, http.StatusBadRequest},
	{scraper.ErrInvalidURL, http.StatusBadRequest},

	{documents.ErrTooLarge, http.StatusRequestEntityTooLarge},
	{documents.ErrUnsupported, http.StatusUnsupportedMediaType},
	{scraper.ErrNoContent, http.StatusUnprocessableEntity},
	{secrets.ErrSecretsFound, http.StatusUnprocessableEntity},
	{analysis.ErrInvalidAnalysis, http.StatusBadGateway},
}

// httpError maps a domain error onto an HTTP error. Unknown errors are
// logged and reported as 500.
func httpError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.status, err.Error())
		}
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
