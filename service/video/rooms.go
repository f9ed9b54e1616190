package video

import (
	"strings"

	"github.com/google/uuid"
)

// Provisioner allocates meeting rooms on a Jitsi-style host where any
// room name is joinable by URL. Uniqueness comes from the random
// suffix, so no call to the host is needed.
type Provisioner struct {
	prefix  string
	baseURL string
}

func NewProvisioner(prefix, baseURL string) *Provisioner {
	return &Provisioner{prefix: prefix, baseURL: strings.TrimRight(baseURL, "/")}
}

// Provision returns a fresh room name and its join URL. The suffix is
// 12 hex characters drawn from a v4 UUID.
func (p *Provisioner) Provision(appointmentID string) (string, string) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	room := p.prefix + "-" + suffix
	return room, p.baseURL + "/" + room
}
