package models

import (
	"time"
)

type Appointment struct {
	ID            string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name          string    `gorm:"column:name;size:255" json:"name"`
	Email         string    `gorm:"column:email;size:255;not null" json:"email"`
	Phone         string    `gorm:"column:phone;size:20" json:"phone"`
	RequestedDate string    `gorm:"column:requested_date;size:100" json:"requested_date"`
	RequestedTime string    `gorm:"column:requested_time;size:100" json:"requested_time"`
	ConsultType   string    `gorm:"column:consult_type;size:20;not null" json:"consult_type"`
	Confirmed     bool      `gorm:"column:confirmed;not null;default:false" json:"confirmed"`
	Declined      bool      `gorm:"column:declined;not null;default:false" json:"declined"`
	FinalTime     string    `gorm:"column:final_time;size:100" json:"final_time,omitempty"`
	DeclineReason string    `gorm:"column:decline_reason;type:text" json:"decline_reason,omitempty"`
	Amount        float64   `gorm:"column:amount;default:0" json:"amount"`
	PaymentDone   bool      `gorm:"column:payment_done;not null;default:false" json:"payment_done"`
	VideoRoom     string    `gorm:"column:video_room;size:255" json:"video_room,omitempty"`
	VideoLink     string    `gorm:"column:video_link;size:500" json:"video_link,omitempty"`
	PaymentLink   string    `gorm:"column:payment_link;size:500" json:"payment_link,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Status derives the lifecycle state from the persisted flags.
func (a *Appointment) Status() string {
	switch {
	case a.Declined:
		return "declined"
	case a.Confirmed && a.PaymentDone:
		return "paid"
	case a.Confirmed:
		return "awaiting_payment"
	default:
		return "requested"
	}
}
