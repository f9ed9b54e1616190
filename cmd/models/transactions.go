package models

import (
	"gorm.io/gorm"
)

type Transaction struct {
	gorm.Model
	AppointmentID string  `gorm:"column:appointment_id;size:36;not null;index" json:"appointment_id"`
	Amount        float64 `gorm:"column:amount;type:float;not null" json:"amount"`
	Method        string  `gorm:"column:method;type:text;not null" json:"method"`
	Purpose       string  `gorm:"column:purpose;type:text;not null" json:"purpose"`

	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}
