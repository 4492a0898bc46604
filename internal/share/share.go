// ABOUTME: Shareable poll links and terminal QR codes
// ABOUTME: Builds the web URL for a poll and renders it as a QR code made of block characters

package share

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// URL returns the public page for a poll: <base>/poll/<id>
func URL(base, pollID string) string {
	return strings.TrimRight(base, "/") + "/poll/" + url.PathEscape(pollID)
}

// ParseLevel maps L, M, Q/H, or HH to a recovery level. Anything else is Medium.
func ParseLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToUpper(level) {
	case "L":
		return qrcode.Low
	case "Q", "H":
		return qrcode.High
	case "HH":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// QR renders link as a terminal QR code using half-height block characters
func QR(link string) (string, error) {
	return QRLevel(link, qrcode.Medium)
}

// QRLevel is QR with an explicit recovery level
func QRLevel(link string, level qrcode.RecoveryLevel) (string, error) {
	if link == "" {
		return "", fmt.Errorf("nothing to encode")
	}
	q, err := qrcode.New(link, level)
	if err != nil {
		return "", fmt.Errorf("failed to build QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
