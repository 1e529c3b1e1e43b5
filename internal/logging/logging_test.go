package logging

import (
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestFormatter(t *testing.T) {
	t.Parallel()

	when := time.Date(2026, 1, 15, 10, 42, 3, 0, time.UTC)

	tests := []struct {
		name  string
		entry *log.Entry
		want  string
	}{
		{
			"plain message",
			&log.Entry{Time: when, Level: log.InfoLevel, Message: "signed in\n"},
			"[2026-01-15 10:42:03] [--------] [info ] signed in\n",
		},
		{
			"request id and fields",
			&log.Entry{
				Time:    when,
				Level:   log.WarnLevel,
				Message: "refresh rejected",
				Data: log.Fields{
					"request_id": "a1b2c3d4",
					"status":     401,
					"endpoint":   "token/refresh/",
				},
			},
			"[2026-01-15 10:42:03] [a1b2c3d4] [warn ] refresh rejected endpoint=token/refresh/ status=401\n",
		},
	}

	formatter := &Formatter{}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := formatter.Format(tt.entry)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatterOrdersKnownFields(t *testing.T) {
	t.Parallel()

	entry := &log.Entry{
		Time:    time.Now(),
		Level:   log.InfoLevel,
		Message: "member approved",
		Data: log.Fields{
			"user": "alice",
			"team": 7,
		},
	}
	got, err := (&Formatter{}).Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	line := string(got)
	if !strings.Contains(line, "team=7 user=alice") {
		t.Errorf("fields not in canonical order: %q", line)
	}
}
