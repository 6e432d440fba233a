package api

import (
	"encoding/json/v2"
	"net/http"
	"net/url"

	"github.com/howtheytest/contribution-server/internal/http/response"
)

func (s *Server) handleExtractMetadata(w http.ResponseWriter, r *http.Request) {
	s.writeCORS(w, r, "GET, OPTIONS")

	if !s.originAllowed(r) {
		response.Forbidden(w, "Origin not allowed", s.logger)
		return
	}

	if !s.extractLimit.Allow(clientIP(r)) {
		response.TooManyRequests(w, "Too many requests. Please try again in a minute.", s.logger)
		return
	}

	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		response.BadRequest(w, "URL parameter is required", s.logger)
		return
	}
	if parsed, err := url.Parse(pageURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		response.BadRequest(w, "Invalid URL format", s.logger)
		return
	}

	// The topics parameter is a JSON array of the caller's vocabulary.
	// A malformed value degrades to no topic matching.
	var topics []string
	if raw := r.URL.Query().Get("topics"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &topics); err != nil {
			topics = nil
		}
	}

	result := s.extractor.Extract(r.Context(), pageURL, topics)
	response.JSON(w, http.StatusOK, result, s.logger)
}

func (s *Server) handleGetVocabulary(w http.ResponseWriter, r *http.Request) {
	vocab, err := s.vocab.Vocabulary()
	if err != nil {
		s.logger.Error("vocabulary derivation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Failed to load vocabulary", s.logger)
		return
	}
	response.JSON(w, http.StatusOK, vocab, s.logger)
}
