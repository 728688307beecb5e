package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func buildTestBinary(t *testing.T) string {
	binName := "fusion_it_bin"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, string(out))
	}
	return bin
}

// TestVersionCommand runs the built binary's version command end to end.
func TestVersionCommand(t *testing.T) {
	bin := buildTestBinary(t)
	cmd := exec.Command(bin, "version")
	cmd.Env = append(os.Environ(), "FUSION_DB="+filepath.Join(t.TempDir(), "fusion.db"))
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\n%s", err, string(out))
	}
}

// TestGracefulInterrupt runs the binary and sends SIGINT, expecting it to exit promptly.
func TestGracefulInterrupt(t *testing.T) {
	bin := buildTestBinary(t)
	cmd := exec.Command(bin, "events")
	cmd.Env = append(os.Environ(), "FUSION_DB="+filepath.Join(t.TempDir(), "fusion.db"))
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start binary: %v", err)
	}
	// Allow startup
	time.Sleep(200 * time.Millisecond)
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("failed to send interrupt: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		// Accept any exit code; main uses exit code 1 on interrupt.
		_ = err
	case <-time.After(3 * time.Second):
		t.Fatal("process did not exit within 3s after SIGINT")
	}
}
