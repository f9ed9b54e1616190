package appointment

import (
	"fmt"
	"log"
	"strings"

	"github.com/careslot/careslot-server/cmd/models"
	"github.com/google/uuid"
)

const (
	ConsultOnline  = "online"
	ConsultOffline = "offline"

	defaultDeclineReason = "The doctor is not available at the requested time. Please book again with a different slot."
)

// Notifier delivers a message to a single address. Delivery is best
// effort: a failure is logged by the engine and never propagated.
type Notifier interface {
	Send(to, subject, body string) error
}

// PaymentLinks builds the payable UPI URI and the payment page link
// for an appointment.
type PaymentLinks interface {
	PaymentURI(appointmentID string, amount float64) string
	PaymentPage(appointmentID string) string
}

// RoomProvisioner allocates a unique video room and its join URL.
type RoomProvisioner interface {
	Provision(appointmentID string) (room string, joinLink string)
}

// Pusher sends a push notification to the devices a patient registered.
type Pusher interface {
	PushToPatient(email, title, body string) error
}

// Publisher broadcasts a lifecycle status change to live listeners.
type Publisher interface {
	Publish(appointmentID, status string)
}

type Config struct {
	OperatorEmail string
	Fee           float64
	BaseURL       string
}

// Engine owns the appointment lifecycle. All state lives in the Store;
// the engine is stateless between calls.
type Engine struct {
	store  Store
	mail   Notifier
	links  PaymentLinks
	rooms  RoomProvisioner
	push   Pusher
	events Publisher
	cfg    Config
}

func NewEngine(cfg Config, store Store, mail Notifier, links PaymentLinks, rooms RoomProvisioner, push Pusher, events Publisher) *Engine {
	return &Engine{
		store:  store,
		mail:   mail,
		links:  links,
		rooms:  rooms,
		push:   push,
		events: events,
		cfg:    cfg,
	}
}

type BookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	ConsultType string `json:"consult_type"`
}

// Book creates a new appointment in the requested state and alerts the
// operator with confirm/decline action links. The record is persisted
// before any notification is attempted.
func (e *Engine) Book(req BookingRequest) (*models.Appointment, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, &ValidationError{Field: "email", Reason: "email is required"}
	}
	consultType := strings.ToLower(strings.TrimSpace(req.ConsultType))
	if consultType != ConsultOnline && consultType != ConsultOffline {
		return nil, &ValidationError{Field: "consult_type", Reason: "must be 'online' or 'offline'"}
	}

	appt := &models.Appointment{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		RequestedDate: strings.TrimSpace(req.Date),
		RequestedTime: strings.TrimSpace(req.Time),
		ConsultType:   consultType,
	}

	if err := e.store.Create(appt); err != nil {
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	e.notify(e.cfg.OperatorEmail, "New appointment request",
		fmt.Sprintf("New appointment request from %s (%s, %s).\n"+
			"Requested slot: %s %s (%s consultation)\n\n"+
			"Confirm: %s\nDecline: %s\n",
			appt.Name, appt.Email, appt.Phone,
			appt.RequestedDate, appt.RequestedTime, appt.ConsultType,
			e.decisionLink(appt.ID, "confirm"), e.decisionLink(appt.ID, "decline")))
	e.publish(appt.ID, appt.Status())

	return appt, nil
}

// Confirm moves a requested appointment to confirmed, assigns the final
// time and the fixed fee, and for online consultations provisions the
// video room and payment link. Offline consultations are considered
// paid at confirmation (pay at clinic).
func (e *Engine) Confirm(id, finalTime string) (*models.Appointment, error) {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Declined {
		return nil, ErrAlreadyDeclined
	}
	if appt.Confirmed {
		return nil, ErrAlreadyConfirmed
	}

	updates := map[string]interface{}{
		"confirmed":  true,
		"final_time": finalTime,
		"amount":     e.cfg.Fee,
	}
	if appt.ConsultType == ConsultOnline {
		room, joinLink := e.rooms.Provision(id)
		updates["video_room"] = room
		updates["video_link"] = joinLink
		updates["payment_link"] = e.links.PaymentPage(id)
		updates["payment_done"] = false
	} else {
		updates["payment_done"] = true
	}

	// Guarded write: only applies while the record is still in the
	// requested state, so a racing Confirm/Decline cannot both win.
	applied, err := e.store.UpdateRequested(id, updates)
	if err != nil {
		return nil, fmt.Errorf("confirming appointment: %w", err)
	}
	if !applied {
		return nil, e.decisionConflict(id)
	}

	updated, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	patientBody := fmt.Sprintf("Your appointment has been confirmed for %s.\nConsultation fee: %.2f", updated.FinalTime, updated.Amount)
	operatorBody := fmt.Sprintf("Appointment %s confirmed for %s (%s consultation).", updated.ID, updated.FinalTime, updated.ConsultType)
	if updated.ConsultType == ConsultOnline {
		patientBody += fmt.Sprintf("\n\nPay here to unlock your video consultation: %s", updated.PaymentLink)
		operatorBody += fmt.Sprintf("\nJoin link: %s", updated.VideoLink)
	}
	e.notify(updated.Email, "Appointment confirmed", patientBody)
	e.notify(e.cfg.OperatorEmail, "Appointment confirmed", operatorBody)
	e.pushPatient(updated.Email, "Appointment confirmed", fmt.Sprintf("Your appointment is confirmed for %s", updated.FinalTime))
	e.publish(updated.ID, updated.Status())

	return updated, nil
}

// Decline moves a requested appointment to declined and tells the
// patient why. The operator already made the decision, so only the
// patient is notified.
func (e *Engine) Decline(id, reason string) (*models.Appointment, error) {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Confirmed {
		return nil, ErrAlreadyConfirmed
	}
	if appt.Declined {
		return nil, ErrAlreadyDeclined
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultDeclineReason
	}

	applied, err := e.store.UpdateRequested(id, map[string]interface{}{
		"declined":       true,
		"decline_reason": reason,
	})
	if err != nil {
		return nil, fmt.Errorf("declining appointment: %w", err)
	}
	if !applied {
		return nil, e.decisionConflict(id)
	}

	updated, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	e.notify(updated.Email, "Appointment declined",
		fmt.Sprintf("Unfortunately your appointment request could not be accepted.\nReason: %s", updated.DeclineReason))
	e.pushPatient(updated.Email, "Appointment declined", updated.DeclineReason)
	e.publish(updated.ID, updated.Status())

	return updated, nil
}

// CompletePayment records the caller's assertion that the UPI payment
// went through. Only meaningful for confirmed online consultations;
// repeated calls are harmless.
func (e *Engine) CompletePayment(id string) (*models.Appointment, error) {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !appt.Confirmed {
		if appt.Declined {
			return nil, ErrAlreadyDeclined
		}
		return nil, ErrNotConfirmed
	}
	if appt.ConsultType != ConsultOnline {
		return nil, ErrPaymentNotApplicable
	}
	applied, err := e.store.MarkPaid(id)
	if err != nil {
		return nil, fmt.Errorf("completing payment: %w", err)
	}

	updated, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The guard re-checks confirmed+online+unpaid at write time. A
		// record that is paid by now lost the write to an earlier call,
		// which is fine; anything else changed under us.
		if updated.PaymentDone {
			return updated, nil
		}
		return nil, ErrNotConfirmed
	}

	// Only the call whose guarded write applied records the ledger row,
	// so concurrent completions cannot double-count revenue.
	ledger := &models.Transaction{
		AppointmentID: updated.ID,
		Amount:        updated.Amount,
		Method:        "UPI",
		Purpose:       "Consultation",
	}
	if err := e.store.RecordTransaction(ledger); err != nil {
		log.Printf("Error recording transaction for appointment %s: %v", updated.ID, err)
	}
	e.publish(updated.ID, updated.Status())

	return updated, nil
}

type PaymentInstructions struct {
	AppointmentID string  `json:"appointment_id"`
	Amount        float64 `json:"amount"`
	UPIURI        string  `json:"upi_uri"`
	PaymentLink   string  `json:"payment_link"`
	PaymentDone   bool    `json:"payment_done"`
}

// PaymentInstructions returns what the patient needs to pay: the fixed
// fee and the payable UPI URI. Clients render the URI as a QR code.
func (e *Engine) PaymentInstructions(id string) (*PaymentInstructions, error) {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !appt.Confirmed {
		return nil, ErrNotConfirmed
	}
	if appt.ConsultType != ConsultOnline {
		return nil, ErrPaymentNotApplicable
	}
	return &PaymentInstructions{
		AppointmentID: appt.ID,
		Amount:        appt.Amount,
		UPIURI:        e.links.PaymentURI(appt.ID, appt.Amount),
		PaymentLink:   appt.PaymentLink,
		PaymentDone:   appt.PaymentDone,
	}, nil
}

type ConsultationAccess struct {
	Granted   bool   `json:"granted"`
	Reason    string `json:"reason,omitempty"`
	VideoLink string `json:"video_link,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
}

// ConsultationAccess checks whether the consultation can be joined.
// Access is denied until payment is recorded, regardless of consult
// type; paid online consults get the join link, paid offline consults
// get the clinic slot.
func (e *Engine) ConsultationAccess(id string) (*ConsultationAccess, error) {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Declined {
		return &ConsultationAccess{Granted: false, Reason: "appointment was declined"}, nil
	}
	if !appt.Confirmed {
		return &ConsultationAccess{Granted: false, Reason: "appointment is not confirmed yet"}, nil
	}
	if !appt.PaymentDone {
		return &ConsultationAccess{Granted: false, Reason: "payment pending"}, nil
	}
	if appt.ConsultType == ConsultOnline {
		return &ConsultationAccess{Granted: true, VideoLink: appt.VideoLink, Date: appt.RequestedDate, Time: appt.FinalTime}, nil
	}
	return &ConsultationAccess{Granted: true, Date: appt.RequestedDate, Time: appt.FinalTime}, nil
}

// Get fetches a single appointment.
func (e *Engine) Get(id string) (*models.Appointment, error) {
	return e.store.GetByID(id)
}

// List returns a page of appointments, optionally filtered by derived
// status, newest first.
func (e *Engine) List(status string, page, pageSize int) ([]models.Appointment, int64, error) {
	return e.store.List(status, page, pageSize)
}

func (e *Engine) decisionLink(id, action string) string {
	return fmt.Sprintf("%s/api/v1/appointments/%s/decision?action=%s",
		strings.TrimRight(e.cfg.BaseURL, "/"), id, action)
}

// decisionConflict re-reads the record after a guarded write was
// refused, to report which terminal state won the race.
func (e *Engine) decisionConflict(id string) error {
	appt, err := e.store.GetByID(id)
	if err != nil {
		return err
	}
	if appt.Declined {
		return ErrAlreadyDeclined
	}
	if appt.Confirmed {
		return ErrAlreadyConfirmed
	}
	return fmt.Errorf("appointment %s could not be updated", id)
}

// notify dispatches an email without holding up the caller. Failures
// are logged, never surfaced.
func (e *Engine) notify(to, subject, body string) {
	if e.mail == nil || to == "" {
		return
	}
	go func() {
		if err := e.mail.Send(to, subject, body); err != nil {
			log.Printf("Error sending notification to %s: %v", to, err)
		}
	}()
}

func (e *Engine) pushPatient(email, title, body string) {
	if e.push == nil || email == "" {
		return
	}
	go func() {
		if err := e.push.PushToPatient(email, title, body); err != nil {
			log.Printf("Error pushing notification to %s: %v", email, err)
		}
	}()
}

func (e *Engine) publish(id, status string) {
	if e.events != nil {
		e.events.Publish(id, status)
	}
}
