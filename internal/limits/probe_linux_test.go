//go:build linux

package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMemAvailable(t *testing.T) {
	data := []byte("MemTotal:       16316412 kB\nMemFree:         1024000 kB\nMemAvailable:    8158206 kB\n")

	v, ok := parseMemAvailable(data)
	assert.True(t, ok)
	assert.Equal(t, uint64(8158206*1024), v)

	_, ok = parseMemAvailable([]byte("MemTotal: 1 kB\n"))
	assert.False(t, ok)

	_, ok = parseMemAvailable([]byte("MemAvailable: lots kB\n"))
	assert.False(t, ok)
}
