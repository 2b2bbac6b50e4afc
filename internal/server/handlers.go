package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"parking-registry/internal/logging"
	"parking-registry/internal/parking"
)

// Handler serializes ledger calls within this process. Separate processes
// sharing the data file are not coordinated.
type Handler struct {
	registry    parking.Registry
	serviceName string
	mu          sync.Mutex
}

func NewHandler(registry parking.Registry, serviceName string) *Handler {
	return &Handler{
		registry:    registry,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.mu.Lock()
	plates, err := h.registry.ListVehicles(ctx)
	h.mu.Unlock()
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	vehicles := make([]string, 0, len(plates))
	for _, p := range plates {
		vehicles = append(vehicles, p.String())
	}

	message := "Vehicles retrieved successfully"
	if len(vehicles) == 0 {
		message = "No vehicles parked"
	}

	WriteSuccess(ctx, w, http.StatusOK, message, ListResponse{
		Count:    len(vehicles),
		Vehicles: vehicles,
	})
}

func (h *Handler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	h.mu.Lock()
	plate, err := h.registry.AddVehicle(ctx, req.Plate)
	h.mu.Unlock()
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Vehicle parked successfully", VehicleResponse{
		Plate: plate.String(),
	})
}

func (h *Handler) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RemoveVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}
	hours, err := parking.ParseHours(string(req.Hours))
	if err != nil {
		hours = -1
	}

	h.mu.Lock()
	receipt, err := h.registry.RemoveVehicle(ctx, req.Plate, hours)
	h.mu.Unlock()
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle removed successfully", ReceiptResponse{
		Plate: receipt.Plate.String(),
		Hours: receipt.Hours,
		Fee:   receipt.Fee.StringFixed(2),
	})
}

func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, parking.ErrInvalidPlate), errors.Is(err, parking.ErrInvalidHours):
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, parking.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, parking.ErrAlreadyParked), errors.Is(err, parking.ErrLotEmpty):
		WriteError(ctx, w, http.StatusConflict, err.Error())
	default:
		log := logging.WithContext(ctx)
		log.Error().Err(err).Str("path", r.URL.Path).Msg("ledger operation failed")
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
