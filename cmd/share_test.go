// ABOUTME: Tests for the share command
// ABOUTME: Validates link building, QR output and the configured base URL

package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestShareCommand_Link(t *testing.T) {
	resetFlags(t)
	t.Setenv("QUICKPOLL_SHARE_BASE_URL", "https://polls.example.com/")

	var buf bytes.Buffer
	exitCode := runShare(&buf, "p 1", false, "M")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if buf.String() != "https://polls.example.com/poll/p%201\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestShareCommand_QR(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	exitCode := runShare(&buf, "p1", true, "L")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "http://localhost:3000/poll/p1" {
		t.Errorf("expected link first, got %q", lines[0])
	}
	if len(lines) < 10 {
		t.Errorf("expected a QR code below the link, got %d lines", len(lines))
	}
}

func TestShareCommand_JSON(t *testing.T) {
	resetFlags(t)
	jsonOutput = true

	var buf bytes.Buffer
	exitCode := runShare(&buf, "p1", false, "M")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["url"] != "http://localhost:3000/poll/p1" {
		t.Errorf("unexpected url %v", got["url"])
	}
	if _, ok := got["qr"]; ok {
		t.Error("expected no qr without --qr")
	}
}

func TestShareCommand_InvalidBaseURL(t *testing.T) {
	resetFlags(t)
	t.Setenv("QUICKPOLL_SHARE_BASE_URL", "not a url")

	var buf bytes.Buffer
	exitCode := runShare(&buf, "p1", false, "M")

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "share_base_url") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
