package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// UPILinks builds UPI deep links for appointment fees. Any UPI app can
// take the upi://pay URI directly or scan it rendered as a QR code.
type UPILinks struct {
	vpa     string
	payee   string
	baseURL string
}

func NewUPILinks(vpa, payee, baseURL string) *UPILinks {
	return &UPILinks{vpa: vpa, payee: payee, baseURL: strings.TrimRight(baseURL, "/")}
}

// PaymentURI returns the payable upi://pay URI for an appointment. The
// transaction reference carries the appointment id so the payment can
// be reconciled later.
func (u *UPILinks) PaymentURI(appointmentID string, amount float64) string {
	q := url.Values{}
	q.Set("pa", u.vpa)
	q.Set("pn", u.payee)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", "Consultation "+appointmentID)
	q.Set("tr", "APT-"+appointmentID)
	return "upi://pay?" + q.Encode()
}

// PaymentPage returns the link emailed to the patient, pointing at the
// payment instructions endpoint for the appointment.
func (u *UPILinks) PaymentPage(appointmentID string) string {
	return u.baseURL + "/api/v1/appointments/" + appointmentID + "/payment"
}
