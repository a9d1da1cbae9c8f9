package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yndnr/snapkv/internal/core/domain"
	"github.com/yndnr/snapkv/internal/textkit"
)

// handleStats handles POST /v1/stats.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := h.decodeText(r, &req, func() string { return req.Text }); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, textkit.Analyze(req.Text))
}

// handleUniq handles POST /v1/uniq.
func (h *Handler) handleUniq(w http.ResponseWriter, r *http.Request) {
	var req UniqRequest
	if err := h.decodeText(r, &req, func() string { return req.Text }); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	kept := textkit.Uniq(req.Text, textkit.UniqOptions{All: req.All, IgnoreCase: req.IgnoreCase})
	removed := len(textkit.Lines(req.Text)) - len(kept)
	h.writeJSON(w, r, http.StatusOK, UniqResponse{
		Text:    textkit.Join(kept),
		Removed: max(removed, 0),
	})
}

// handleGrep handles POST /v1/grep.
func (h *Handler) handleGrep(w http.ResponseWriter, r *http.Request) {
	var req GrepRequest
	if err := h.decodeText(r, &req, func() string { return req.Text }); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	matches, err := textkit.Grep(req.Text, req.Pattern, textkit.GrepOptions{
		IgnoreCase: req.IgnoreCase,
		Invert:     req.Invert,
	})
	if errors.Is(err, textkit.ErrEmptyPattern) {
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails("pattern must not be empty"))
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if matches == nil {
		matches = []textkit.Match{}
	}
	if !req.LineNumber {
		for i := range matches {
			matches[i].Line = 0
		}
	}
	h.writeJSON(w, r, http.StatusOK, GrepResponse{Matches: matches, Count: len(matches)})
}

// decodeText decodes a /v1 request and enforces the text size limit.
func (h *Handler) decodeText(r *http.Request, v any, text func() string) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	if n := len(text()); n > h.maxTextBytes {
		return domain.ErrPayloadTooLarge.WithDetails(fmt.Sprintf("text is %d bytes, limit is %d", n, h.maxTextBytes))
	}
	return nil
}
