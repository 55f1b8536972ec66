package api

import (
	"errors"
	"net/http"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/extractor"
)

// extractionStatus maps an extraction failure to the response status and message.
func extractionStatus(err error) (int, string) {
	kind, ok := extractor.KindOf(err)
	if !ok {
		return http.StatusBadGateway, "task extraction failed"
	}
	switch kind {
	case extractor.KindConfiguration:
		return http.StatusServiceUnavailable, "task extraction is not configured"
	case extractor.KindFormat:
		return http.StatusUnprocessableEntity, "could not understand the task description"
	default:
		return http.StatusBadGateway, "task extraction failed"
	}
}

// storeStatus maps a storage failure to the response status and message.
func storeStatus(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFound.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	default:
		return http.StatusInternalServerError, "storage failure"
	}
}
