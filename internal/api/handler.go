package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/grzegorczykanna/UBSWebAPI/internal/client"
	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
	"github.com/grzegorczykanna/UBSWebAPI/internal/render"
	"github.com/grzegorczykanna/UBSWebAPI/internal/service"
	"github.com/grzegorczykanna/UBSWebAPI/internal/view"
)

// HandlerOptions tune how failures are reported.
type HandlerOptions struct {
	// PropagateStatus answers upstream failures with the upstream status
	// code instead of a fixed 500.
	PropagateStatus bool
}

// CountryHandler handles HTTP requests for country views.
type CountryHandler struct {
	service service.CountryService
	log     logrus.FieldLogger
	opts    HandlerOptions
}

// NewCountryHandler creates a new handler with a given service.
func NewCountryHandler(s service.CountryService, log logrus.FieldLogger, opts HandlerOptions) *CountryHandler {
	return &CountryHandler{
		service: s,
		log:     log,
		opts:    opts,
	}
}

// View returns the handler running view v over the partition named by the
// {region} or {subregion} path variable.
func (h *CountryHandler) View(kind domain.PartitionKind, v view.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)[string(kind)]
		if key == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s name is required", kind))
			return
		}

		format, err := render.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Query parameter 'format' must be json or csv")
			return
		}

		rs, err := h.service.Query(r.Context(), service.Query{Kind: kind, Key: key, View: v})
		if err != nil {
			h.fail(w, r, err, kind, key)
			return
		}

		payload, err := render.Render(rs, format, render.Options{})
		if err != nil {
			h.fail(w, r, err, kind, key)
			return
		}

		w.Header().Set("Content-Type", payload.ContentType)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload.Body); err != nil {
			h.entry(r).WithError(err).Error("failed to write response")
		}
	}
}

// ClearCache drops every cached partition.
func (h *CountryHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCache(r.Context()); err != nil {
		h.entry(r).WithError(err).Error("failed to clear cache")
		writeError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateCache drops one cached partition.
func (h *CountryHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := domain.PartitionKind(vars["kind"])
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "kind must be region or subregion")
		return
	}
	if err := h.service.Invalidate(r.Context(), kind, vars["name"]); err != nil {
		h.entry(r).WithError(err).Error("failed to invalidate cache entry")
		writeError(w, http.StatusInternalServerError, "Failed to invalidate cache entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CountryHandler) fail(w http.ResponseWriter, r *http.Request, err error, kind domain.PartitionKind, key string) {
	status, msg := h.classify(err, kind, key)
	entry := h.entry(r).WithError(err).WithFields(logrus.Fields{"kind": kind, "key": key, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	writeError(w, status, msg)
}

func (h *CountryHandler) classify(err error, kind domain.PartitionKind, key string) (int, string) {
	var (
		upErr  *client.UpstreamError
		netErr net.Error
	)
	switch {
	case errors.As(err, &upErr):
		status := http.StatusInternalServerError
		if h.opts.PropagateStatus && upErr.StatusCode >= 400 {
			status = upErr.StatusCode
		}
		return status, fmt.Sprintf("Failed to fetch data for %s %q", kind, key)
	case errors.Is(err, render.ErrEmptyResult):
		return http.StatusNotFound, "No countries match the request, nothing to render as CSV"
	case errors.Is(err, client.ErrMalformedRecord), errors.Is(err, client.ErrMalformedPayload):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, "Upstream request timed out"
	}
	return http.StatusInternalServerError, err.Error()
}

func (h *CountryHandler) entry(r *http.Request) *logrus.Entry {
	return h.log.WithField("request_id", RequestID(r.Context()))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		http.Error(w, `{"error": "Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", render.ContentTypeJSON)
	w.WriteHeader(status)
	w.Write(body)
}
