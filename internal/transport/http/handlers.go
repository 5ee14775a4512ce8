package http

import (
	"fmt"
	"net/http"
	"strings"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/netutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	ip := netutil.ClientIP(r, h.opts.TrustProxy)
	res, err := h.auth.Register(r.Context(), req, ip, r.UserAgent())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "account registered", res)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if !h.throttle.Allow(dto.NormalizeEmail(req.Email)) {
		h.errs.write(w, r, fmt.Errorf("%w: too many login attempts, try again later", errRateLimited))
		return
	}
	ip := netutil.ClientIP(r, h.opts.TrustProxy)
	res, err := h.auth.Login(r.Context(), req, ip, r.UserAgent())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "login succeeded", res)
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	acc, ok := AccountFromContext(r.Context())
	if !ok {
		h.errs.write(w, r, domain.ErrUnauthorized)
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"account": acc})
}

func (h *handlers) setAvailability(w http.ResponseWriter, r *http.Request) {
	acc, ok := AccountFromContext(r.Context())
	if !ok {
		h.errs.write(w, r, domain.ErrUnauthorized)
		return
	}
	var req dto.AvailabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	updated, err := h.receivers.SetAvailability(r.Context(), acc.ID, *req.Available)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "availability updated", map[string]any{"account": updated})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.errs.write(w, r, domain.ErrUnauthorized)
		return
	}
	if err := h.auth.Logout(r.Context(), claims); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	req.Normalize()
	if err := dto.Validate(req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	radius := req.Radius()
	matches, err := h.receivers.Search(r.Context(), req.Address, radius)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, fmt.Sprintf("%d receiver(s) found", len(matches)), dto.SearchResponse{
		Receivers:    matches,
		SearchParams: dto.SearchParams{Address: req.Address, RadiusKm: radius},
	})
}

func (h *handlers) getReceiver(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "receiverID")))
	if err != nil {
		h.errs.write(w, r, fmt.Errorf("%w: invalid receiver id", domain.ErrInvalidInput))
		return
	}
	match, err := h.receivers.GetReceiver(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if match == nil {
		h.errs.write(w, r, fmt.Errorf("%w: receiver not found", domain.ErrNotFound))
		return
	}
	writeData(w, http.StatusOK, "", match)
}

func (h *handlers) jwks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tokens.JWKS())
}
