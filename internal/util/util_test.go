package util

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
	}

	for _, tt := range tests {
		if got := HashKey(tt.input); got != tt.want {
			t.Errorf("HashKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"EAGAIN", syscall.EAGAIN, true},
		{"EIO wrapped in PathError", &os.PathError{Op: "rename", Path: "x", Err: syscall.EIO}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"timeout in message", errors.New("operation timed out"), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), cfg, "op", func() error {
		calls++
		if calls < 3 {
			return syscall.EAGAIN
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, "op", func() error {
		calls++
		return syscall.ENOENT
	})
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("expected ENOENT, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	err := Retry(context.Background(), cfg, "op", func() error { return syscall.EBUSY })
	if !errors.Is(err, syscall.EBUSY) {
		t.Fatalf("expected wrapped EBUSY, got %v", err)
	}
}

func TestIsSameFilesystemForMissingPath(t *testing.T) {
	dir := t.TempDir()
	same, err := IsSameFilesystem(dir, filepath.Join(dir, "not", "yet", "created.mp3"))
	if err != nil {
		t.Fatalf("IsSameFilesystem failed: %v", err)
	}
	if !same {
		t.Error("expected a path and its future child to share a filesystem")
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	prev := SetLogOutput(&buf)
	defer SetLogOutput(prev)
	defer SetLogLevel(LevelInfo)

	SetLogLevel(LevelInfo)
	DebugLog("hidden %d", 1)
	InfoLog("shown %d", 2)
	SuccessLog("done")

	SetQuiet(true)
	WarnLog("suppressed")
	ErrorLog("failed: %s", "x")

	out := buf.String()
	if strings.Contains(out, "hidden") || strings.Contains(out, "suppressed") {
		t.Errorf("filtered messages were written:\n%s", out)
	}
	for _, want := range []string{"[INFO]  shown 2", "[OK]    done", "[ERROR] failed: x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors written to a non-terminal")
	}
	if !IsQuiet() || IsVerbose() {
		t.Error("quiet mode not reported")
	}
}
