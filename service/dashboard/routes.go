package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/careslot/careslot-server/cmd/models"
	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type DashboardStats struct {
	TotalAppointments int64   `json:"total_appointments"`
	Requested         int64   `json:"requested"`
	Confirmed         int64   `json:"confirmed"`
	Declined          int64   `json:"declined"`
	AwaitingPayment   int64   `json:"awaiting_payment"`
	CollectedRevenue  float64 `json:"collected_revenue"`
}

// RegisterRoutes registers dashboard-related routes with Gorilla Mux
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	dashboardRouter := router.PathPrefix("/dashboard").Subrouter()
	dashboardRouter.HandleFunc("/stats", utils.AuthMiddleware(h.GetDashboardStats)).Methods("GET")
}

func (h *DashboardHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	var stats DashboardStats

	counts := []struct {
		query *gorm.DB
		into  *int64
	}{
		{h.db.Model(&models.Appointment{}), &stats.TotalAppointments},
		{h.db.Model(&models.Appointment{}).Where("confirmed = ? AND declined = ?", false, false), &stats.Requested},
		{h.db.Model(&models.Appointment{}).Where("confirmed = ?", true), &stats.Confirmed},
		{h.db.Model(&models.Appointment{}).Where("declined = ?", true), &stats.Declined},
		{h.db.Model(&models.Appointment{}).Where("confirmed = ? AND payment_done = ?", true, false), &stats.AwaitingPayment},
	}
	for _, c := range counts {
		if err := c.query.Count(c.into).Error; err != nil {
			http.Error(w, "Failed to compute appointment counts", http.StatusInternalServerError)
			return
		}
	}

	if err := h.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.CollectedRevenue).Error; err != nil {
		http.Error(w, "Failed to compute collected revenue", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
