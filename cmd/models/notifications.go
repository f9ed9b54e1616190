package models

import (
	"time"

	"gorm.io/gorm"
)

// Device is a patient push token, keyed by the email used when booking.
type Device struct {
	gorm.Model
	Token        string `gorm:"not null;uniqueIndex:idx_token_patient" json:"token"`
	PatientEmail string `gorm:"not null;index;uniqueIndex:idx_token_patient" json:"patient_email"`
	DeviceType   string `gorm:"type:varchar(50)" json:"device_type"`
	DeviceName   string `gorm:"type:varchar(100)" json:"device_name,omitempty"`
}

type NotificationHistory struct {
	gorm.Model
	PatientEmail string    `gorm:"index" json:"patient_email"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	SentAt       time.Time `json:"sent_at"`
}
