package handler

import (
	"net/http"

	"divebook/internal/availability/service"
	"divebook/pkg/config"
	httputil "divebook/pkg/http"
	"divebook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const defaultRangeDays = 14

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, cfg *config.Config) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     cfg.Log.Component("availability_handler"),
	}
}

func (h *AvailabilityHandler) Query(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, to, err := httputil.ExtractDateRange(r, defaultRangeDays)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Query", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookingType := r.URL.Query().Get("booking_type")

	slots, err := h.service.QueryAvailability(r.Context(), bookingType, from, to)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Query", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Query", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) GetSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("id")

	slot, err := h.service.GetSlot(r.Context(), slotID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSlot", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Query)
	router.GET("/api/v1/slots/:id", h.GetSlot)
}
