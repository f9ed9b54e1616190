package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/careslot/careslot-server/cmd/models"
	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"gorm.io/gorm"
)

// PushService delivers booking-status updates to the devices a patient
// registered, and keeps a history of every attempt.
type PushService struct {
	db         *gorm.DB
	expoClient *expo.PushClient
}

func NewPushService(db *gorm.DB) *PushService {
	return &PushService{
		db:         db,
		expoClient: expo.NewPushClient(nil),
	}
}

// PushToPatient sends a notification to every device registered under
// the patient's email. Having no devices is not an error.
func (s *PushService) PushToPatient(email, title, body string) error {
	var devices []models.Device
	if err := s.db.Where("patient_email = ?", email).Find(&devices).Error; err != nil {
		return fmt.Errorf("retrieving devices for %s: %w", email, err)
	}
	if len(devices) == 0 {
		return nil
	}

	var tokens []expo.ExponentPushToken
	for _, device := range devices {
		pushToken, err := expo.NewExponentPushToken(device.Token)
		if err != nil {
			log.Printf("Invalid push token format %s: %v", device.Token, err)
			continue
		}
		tokens = append(tokens, pushToken)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no valid push tokens for %s", email)
	}

	_, err := s.expoClient.Publish(&expo.PushMessage{
		To:       tokens,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	})

	status := "sent"
	if err != nil {
		status = "failed"
	}
	history := models.NotificationHistory{
		PatientEmail: email,
		Title:        title,
		Body:         body,
		Status:       status,
		SentAt:       time.Now(),
	}
	if dbErr := s.db.Create(&history).Error; dbErr != nil {
		log.Printf("Error creating notification history: %v", dbErr)
	}

	return err
}

type NotificationHandler struct {
	db   *gorm.DB
	push *PushService
}

func NewNotificationHandler(db *gorm.DB, push *PushService) *NotificationHandler {
	return &NotificationHandler{db: db, push: push}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/devices", h.RegisterDevice).Methods("POST")
	router.HandleFunc("/devices/{id}", h.DeleteDevice).Methods("DELETE")
	router.HandleFunc("/notifications/history", utils.AuthMiddleware(h.GetNotificationHistory)).Methods("GET")
}

// RegisterDevice registers a patient device for push notifications
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if device.PatientEmail == "" || device.Token == "" {
		http.Error(w, "patient_email and token are required", http.StatusBadRequest)
		return
	}
	if _, err := expo.NewExponentPushToken(device.Token); err != nil {
		http.Error(w, "Invalid Expo push token format", http.StatusBadRequest)
		return
	}

	var existing models.Device
	result := h.db.Where("token = ? AND patient_email = ?", device.Token, device.PatientEmail).First(&existing)
	if result.Error == nil {
		existing.DeviceType = device.DeviceType
		existing.DeviceName = device.DeviceName
		if err := h.db.Save(&existing).Error; err != nil {
			http.Error(w, "Error updating device", http.StatusInternalServerError)
			return
		}
		device = existing
	} else {
		if err := h.db.Create(&device).Error; err != nil {
			http.Error(w, "Error creating device", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Device registered successfully",
		"device":  device,
	})
}

// DeleteDevice removes a registered device token
func (h *NotificationHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid device ID", http.StatusBadRequest)
		return
	}

	result := h.db.Delete(&models.Device{}, deviceID)
	if result.Error != nil {
		http.Error(w, "Error deleting device", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Device deleted successfully",
	})
}

// GetNotificationHistory lists past notification attempts, optionally
// filtered by patient email
func (h *NotificationHandler) GetNotificationHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	page := 1
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if parsed, err := strconv.Atoi(pageParam); err == nil && parsed > 0 {
			page = parsed
		}
	}

	query := h.db.Model(&models.NotificationHistory{})
	if email := r.URL.Query().Get("email"); email != "" {
		query = query.Where("patient_email = ?", email)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		http.Error(w, "Error counting notifications", http.StatusInternalServerError)
		return
	}

	var history []models.NotificationHistory
	if err := query.Order("sent_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&history).Error; err != nil {
		http.Error(w, "Error retrieving notification history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":   count,
		"page":    page,
		"limit":   limit,
		"history": history,
	})
}
