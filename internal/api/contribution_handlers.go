package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/errors"
	"github.com/howtheytest/contribution-server/internal/http/response"
)

// submissionRequest is the form payload: a contribution draft plus the
// bot-verification token.
type submissionRequest struct {
	domain.ContributionDraft
	TurnstileToken string `json:"turnstileToken"`
}

// submissionResponse is the success body.
type submissionResponse struct {
	Success  bool   `json:"success"`
	PRURL    string `json:"prUrl"`
	PRNumber int    `json:"prNumber"`
}

func (s *Server) handleSubmitContribution(w http.ResponseWriter, r *http.Request) {
	s.writeCORS(w, r, "POST, OPTIONS")

	if !s.originAllowed(r) {
		response.Forbidden(w, "Origin not allowed", s.logger)
		return
	}

	var req submissionRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	accepted, err := s.intake.Submit(r.Context(), req.ContributionDraft, req.TurnstileToken, clientIP(r))
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, submissionResponse{
		Success:  true,
		PRURL:    accepted.PRURL,
		PRNumber: accepted.PRNumber,
	}, s.logger)
}

// writeSubmitError maps intake failures to the wire contract: domain errors
// keep their message and status, anything else is the generic failure with
// the upstream message attached as details.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) && domainErr.HTTPStatus() < 500 {
		response.Error(w, domainErr.HTTPStatus(), domainErr.Message, s.logger)
		return
	}

	s.logger.Error("submission failed", "error", err)
	response.ErrorWithDetails(w, http.StatusInternalServerError,
		"Failed to submit resource. Please try again later.", err.Error(), s.logger)
}
