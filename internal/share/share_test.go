// ABOUTME: Tests for share links and QR rendering
// ABOUTME: Verifies URL shape and that QR output is a non-empty block grid

package share

import (
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/poll/abc", URL("http://localhost:3000", "abc"))
	assert.Equal(t, "https://quickpoll.example.com/poll/abc", URL("https://quickpoll.example.com/", "abc"))
	assert.Equal(t, "http://x/poll/a%2Fb", URL("http://x", "a/b"))
}

func TestQR(t *testing.T) {
	out, err := QR("http://localhost:3000/poll/abc")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Greater(t, len(lines), 10)
	assert.Contains(t, out, "█")
}

func TestQREmpty(t *testing.T) {
	_, err := QR("")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, qrcode.Low, ParseLevel("l"))
	assert.Equal(t, qrcode.Medium, ParseLevel("M"))
	assert.Equal(t, qrcode.High, ParseLevel("H"))
	assert.Equal(t, qrcode.Highest, ParseLevel("HH"))
	assert.Equal(t, qrcode.Medium, ParseLevel("?"))
}
