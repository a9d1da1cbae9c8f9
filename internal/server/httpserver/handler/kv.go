package handler

import (
	"io"
	"net/http"

	"github.com/yndnr/snapkv/internal/core/domain"
)

// handleList handles GET /kv.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, records)
}

// handleGet handles GET /kv/{key}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEntryResponse(entry))
}

// handlePut handles PUT and POST /kv/{key}. The request body is the raw
// JSON value.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.handleServiceError(w, r, bodyError(err))
		return
	}

	entry, err := h.store.Put(r.Context(), r.PathValue("key"), body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEntryResponse(entry))
}

// handleDelete handles DELETE /kv/{key}.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.Delete(r.Context(), r.PathValue("key"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEntryResponse(entry))
}

// handleRename handles POST /kv/{key}/rename.
func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	from := r.PathValue("key")
	if err := h.store.Rename(r.Context(), from, req.To); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, RenameResponse{From: from, To: req.To})
}

func toEntryResponse(e *domain.Entry) EntryResponse {
	return EntryResponse{Key: e.Key, Value: e.Value}
}
