package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/amortization"
	"credit-simulator/internal/model"
	"credit-simulator/internal/service"
)

// ReferenceRateSource supplies the informational market rate.
type ReferenceRateSource interface {
	GetReferenceRate(ctx context.Context) (*model.ReferenceRate, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type SimulationHandler struct {
	simulationService *service.SimulationService
	rates             ReferenceRateSource
	logger            *logrus.Logger
}

func NewSimulationHandler(simulationService *service.SimulationService, rates ReferenceRateSource, logger *logrus.Logger) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
		rates:             rates,
		logger:            logger,
	}
}

// RegisterRoutes mounts the credit routes on a /credits subrouter.
func (h *SimulationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/simulate", h.CreateSimulation).Methods("POST")
	router.HandleFunc("/{simulationId:[0-9]+}", h.GetSimulation).Methods("GET")
	router.HandleFunc("/{simulationId:[0-9]+}/schedule", h.GetSchedule).Methods("GET")
}

// RegisterRateRoutes mounts the reference rate route on a /rates subrouter.
func (h *SimulationHandler) RegisterRateRoutes(router *mux.Router) {
	router.HandleFunc("/reference", h.GetReferenceRate).Methods("GET")
}

func (h *SimulationHandler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to decode simulation request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request payload"})
		return
	}

	resp, err := h.simulationService.CreateSimulation(r.Context(), req)
	if err != nil {
		var nonViable *amortization.NonViableError
		switch {
		case errors.As(err, &nonViable):
			writeJSON(w, http.StatusUnprocessableEntity, model.NonViableResponse{
				Viable:            false,
				Message:           "Monthly payment exceeds the client's debt capacity",
				MonthlyPayment:    nonViable.Payment,
				MaxAllowedPayment: nonViable.MaxAllowed,
				DebtCapacity:      nonViable.DebtCapacity,
			})
		case errors.Is(err, service.ErrInvalidRateSpecification), errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.WithError(err).Error("Failed to create simulation")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create simulation"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *SimulationHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	simulationID, ok := h.simulationID(w, r)
	if !ok {
		return
	}

	resp, err := h.simulationService.GetSimulation(r.Context(), simulationID)
	if err != nil {
		if errors.Is(err, service.ErrSimulationNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Simulation not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get simulation")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to get simulation"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SimulationHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	simulationID, ok := h.simulationID(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid page"})
		return
	}
	size, err := queryInt(r, "size", service.DefaultPageSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid size"})
		return
	}

	schedule, err := h.simulationService.GetSchedulePage(r.Context(), simulationID, page, size)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to get payment schedule")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to get payment schedule"})
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

func (h *SimulationHandler) GetReferenceRate(w http.ResponseWriter, r *http.Request) {
	if h.rates == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Reference rate is not configured"})
		return
	}

	rate, err := h.rates.GetReferenceRate(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get reference rate")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Reference rate service unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, rate)
}

// Health reports whether storage answers.
func (h *SimulationHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.simulationService.Ping(r.Context()); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SimulationHandler) simulationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["simulationId"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid simulation ID"})
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
