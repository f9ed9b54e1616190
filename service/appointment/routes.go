package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	engine *Engine
}

func NewAppointmentHandler(engine *Engine) *AppointmentHandler {
	return &AppointmentHandler{engine: engine}
}

func (h *AppointmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointments", h.BookAppointment).Methods("POST")
	router.HandleFunc("/appointments", utils.AuthMiddleware(h.ListAppointments)).Methods("GET")
	router.HandleFunc("/appointments/{id}", h.GetAppointment).Methods("GET")
	router.HandleFunc("/appointments/{id}/decision", h.GetDecision).Methods("GET")
	router.HandleFunc("/appointments/{id}/confirm", h.ConfirmAppointment).Methods("POST")
	router.HandleFunc("/appointments/{id}/decline", h.DeclineAppointment).Methods("POST")
	router.HandleFunc("/appointments/{id}/payment", h.GetPaymentInstructions).Methods("GET")
	router.HandleFunc("/appointments/{id}/payment/complete", h.CompletePayment).Methods("POST")
	router.HandleFunc("/appointments/{id}/consultation", h.GetConsultationAccess).Methods("GET")
}

// BookAppointment creates a new appointment request
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Book(req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointment_id": appt.ID,
		"status":         appt.Status(),
	})
}

// ListAppointments returns a paginated listing for the operator
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 100

	appointments, total, err := h.engine.List(r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAppointment retrieves a specific appointment by ID
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.engine.Get(mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// GetDecision returns the context the doctor's decision form needs.
// Rendering is left to the client; this only echoes the record and the
// endpoint the chosen action should be submitted to.
func (h *AppointmentHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action != "confirm" && action != "decline" {
		http.Error(w, "action must be 'confirm' or 'decline'", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	appt, err := h.engine.Get(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointment": appt,
		"action":      action,
		"submit_to":   "/api/v1/appointments/" + id + "/" + action,
	})
}

// ConfirmAppointment applies the doctor's confirmation
func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FinalTime string `json:"final_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Confirm(mux.Vars(r)["id"], req.FinalTime)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// DeclineAppointment applies the doctor's decline
func (h *AppointmentHandler) DeclineAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Decline(mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// GetPaymentInstructions returns the amount and payable UPI URI
func (h *AppointmentHandler) GetPaymentInstructions(w http.ResponseWriter, r *http.Request) {
	instructions, err := h.engine.PaymentInstructions(mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(instructions)
}

// CompletePayment marks the appointment paid and returns access info
func (h *AppointmentHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.engine.CompletePayment(id); err != nil {
		writeEngineError(w, err)
		return
	}

	access, err := h.engine.ConsultationAccess(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(access)
}

// GetConsultationAccess reports whether the consultation can be joined
func (h *AppointmentHandler) GetConsultationAccess(w http.ResponseWriter, r *http.Request) {
	access, err := h.engine.ConsultationAccess(mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(access)
}

func writeEngineError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Appointment not found", http.StatusNotFound)
	case IsIllegalState(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
