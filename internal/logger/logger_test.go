package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		minLevel Level
		level    Level
		want     bool
	}{
		{"debug at debug", LevelDebug, LevelDebug, true},
		{"info at debug", LevelDebug, LevelInfo, true},
		{"debug at info", LevelInfo, LevelDebug, false},
		{"warn at error", LevelError, LevelWarn, false},
		{"error at debug", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(tt.minLevel, &buf)

			l.write(tt.level, "region read", nil, nil)

			if logged := buf.Len() > 0; logged != tt.want {
				t.Errorf("logged = %v, want %v", logged, tt.want)
			}
			if l.Enabled(tt.level) != tt.want {
				t.Errorf("Enabled(%s) = %v, want %v", tt.level, !tt.want, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)
	l.now = func() time.Time { return time.Date(2021, 1, 15, 18, 30, 0, 0, time.FixedZone("WET", 0)) }

	l.Error("Stage failed", Fields{"stage": "merge"}, errors.New("duplicate key"))

	var e Entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v (line %q)", err, buf.String())
	}
	if e.Timestamp != "2021-01-15T18:30:00Z" {
		t.Errorf("Timestamp = %q", e.Timestamp)
	}
	if e.Level != LevelError || e.Message != "Stage failed" || e.Error != "duplicate key" {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields["stage"] != "merge" {
		t.Errorf("Fields[stage] = %v, want merge", e.Fields["stage"])
	}
}

func TestLogger_OmitsEmptyFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	New(LevelInfo, &buf).Info("Done", nil)

	line := buf.String()
	if strings.Contains(line, `"fields"`) || strings.Contains(line, `"error"`) {
		t.Errorf("line = %q, want no fields or error keys", line)
	}
	if !strings.HasSuffix(line, "}\n") {
		t.Errorf("line = %q, want one JSON object per line", line)
	}
}

func TestLogger_UnencodableField(t *testing.T) {
	var buf bytes.Buffer
	New(LevelInfo, &buf).Info("Merged report into dataset", Fields{"bad": make(chan int)})

	if !strings.Contains(buf.String(), "Merged report into dataset") {
		t.Errorf("message lost: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"Error", LevelError, false},
		{"", LevelInfo, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	previous := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(previous)

	Debug("Stage finished", nil)
	Info("Merged report into dataset", Fields{"column": "2021/01/15"})
	Warn("Skipping batch row without concelho", nil)
	Error("Stage failed", Fields{"stage": "fetch"}, errors.New("404"))

	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("package-level functions wrote %d lines, want 4", lines)
	}
}
