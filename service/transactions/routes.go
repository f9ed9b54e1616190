package transactions

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/careslot/careslot-server/cmd/models"
	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type TransactionHandler struct {
	db *gorm.DB
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", utils.AuthMiddleware(h.GetAllTransactions)).Methods("GET")
	router.HandleFunc("/appointments/{id}/transactions", utils.AuthMiddleware(h.GetAppointmentTransactions)).Methods("GET")
}

// GetAllTransactions lists the payment ledger, newest first
func (h *TransactionHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 100

	query := h.db.Model(&models.Transaction{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}

	var ledger []models.Transaction
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("created_at DESC").Find(&ledger).Error; err != nil {
		http.Error(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transactions": ledger,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// GetAppointmentTransactions lists ledger rows for one appointment
func (h *TransactionHandler) GetAppointmentTransactions(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	var ledger []models.Transaction
	if err := h.db.Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").Find(&ledger).Error; err != nil {
		http.Error(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointment_id": appointmentID,
		"transactions":   ledger,
	})
}
