package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/austin-smith/fusion-bridge/pkg/clierr"
)

func TestEvents_EmptyFeed(t *testing.T) {
	setupCmdDB(t)

	out, err := runCmd(t, eventsCmd())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "No events recorded yet") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestEvents_InvalidLimit(t *testing.T) {
	setupCmdDB(t)

	_, err := runCmd(t, eventsCmd(), "--limit", "0")
	var cliErr *clierr.Error
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected a clierr.Error, got: %v", err)
	}
	if cliErr.Type != clierr.Validation {
		t.Fatalf("expected validation error, got: %s", cliErr.Type)
	}
}
