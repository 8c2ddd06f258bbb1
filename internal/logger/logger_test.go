package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-co-op/gocron/v2"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "error", wantDebug: false, wantInfo: false},
		{level: "bogus", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.level, false)

			log.Debug("debug line")
			log.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestGocronLoggerTagsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "debug", true)

	gl := NewGocronLogger(log)
	gl.Error("job failed", "name", "bot_1", "error", fmt.Errorf("remove: %w", gocron.ErrJobNotFound))
	gl.Info("odd args", "dangling")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["component"] != "gocron" {
		t.Errorf("component = %v, want gocron", entry["component"])
	}
	if entry["error_kind"] != "job_not_found" {
		t.Errorf("error_kind = %v, want job_not_found", entry["error_kind"])
	}
	if entry["name"] != "bot_1" {
		t.Errorf("name = %v, want bot_1", entry["name"])
	}
}

func TestSchedulerErrorKind(t *testing.T) {
	t.Parallel()

	if got := schedulerErrorKind(errors.New("boom")); got != "scheduler" {
		t.Errorf("schedulerErrorKind(plain) = %q, want scheduler", got)
	}
	if got := schedulerErrorKind(gocron.ErrStopSchedulerTimedOut); got != "shutdown_timeout" {
		t.Errorf("schedulerErrorKind(timeout) = %q, want shutdown_timeout", got)
	}
}
