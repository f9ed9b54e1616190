package video

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionRoomShape(t *testing.T) {
	provisioner := NewProvisioner("consult", "https://meet.jit.si/")

	room, link := provisioner.Provision("abc-123")
	assert.Regexp(t, regexp.MustCompile(`^consult-[0-9a-f]{12}$`), room)
	assert.Equal(t, "https://meet.jit.si/"+room, link)

	suffix := strings.TrimPrefix(room, "consult-")
	assert.GreaterOrEqual(t, len(suffix), 8)
}

func TestProvisionRoomsAreUnique(t *testing.T) {
	provisioner := NewProvisioner("consult", "https://meet.jit.si")

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		room, _ := provisioner.Provision("abc-123")
		require.False(t, seen[room], "room %s issued twice", room)
		seen[room] = true
	}
}
