package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentURI(t *testing.T) {
	links := NewUPILinks("clinic@upi", "CareSlot Clinic", "https://clinic.example.com/")

	uri := links.PaymentURI("abc-123", 500)
	require.True(t, strings.HasPrefix(uri, "upi://pay?"))

	values, err := url.ParseQuery(strings.TrimPrefix(uri, "upi://pay?"))
	require.NoError(t, err)
	assert.Equal(t, "clinic@upi", values.Get("pa"))
	assert.Equal(t, "CareSlot Clinic", values.Get("pn"))
	assert.Equal(t, "500.00", values.Get("am"))
	assert.Equal(t, "INR", values.Get("cu"))
	assert.Equal(t, "APT-abc-123", values.Get("tr"))
	assert.Contains(t, values.Get("tn"), "abc-123")
}

func TestPaymentPage(t *testing.T) {
	links := NewUPILinks("clinic@upi", "CareSlot Clinic", "https://clinic.example.com/")

	page := links.PaymentPage("abc-123")
	assert.Equal(t, "https://clinic.example.com/api/v1/appointments/abc-123/payment", page)
}
