package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/oggyb/hire-match/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		want   []string
		absent []string
	}{
		{
			name: "text with component",
			cfg:  Config{Level: "debug", Format: FormatText, Component: "matching"},
			want: []string{"match created", "component=matching", "match_id=7"},
		},
		{
			name: "json",
			cfg:  Config{Level: "info", Format: FormatJSON, Component: "json_test"},
			want: []string{`"msg":"match created"`, `"component":"json_test"`, `"match_id":7`},
		},
		{
			name:   "error level drops info",
			cfg:    Config{Level: "ERROR"},
			absent: []string{"match created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Output = &buf
			New(&tt.cfg).Info("match created", "match_id", 7)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in output, got: %s", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("did not expect %q in output, got: %s", a, out)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" Warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitFromConfig_ReplacesGlobal(t *testing.T) {
	cfg := config.New()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "JSON"
	cfg.Log.Component = "seed"

	out := captureOutput(t, func() {
		InitFromConfig(cfg)
		With("swipes", 3).Debug("seeding")
	})

	for _, w := range []string{`"msg":"seeding"`, `"component":"seed"`, `"swipes":3`} {
		if !strings.Contains(out, w) {
			t.Errorf("expected %q in output, got: %s", w, out)
		}
	}
}

func TestInitFromConfig_NilFallsBackToDefaults(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(nil)
		Debug("hidden at info")
		Warn("visible at info")
	})

	if strings.Contains(out, "hidden at info") {
		t.Errorf("debug log should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "visible at info") {
		t.Errorf("warn log should appear, got: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	var reqBuf, fallbackBuf bytes.Buffer
	reqLog := New(&Config{Output: &reqBuf}).With("request_id", "abc")
	fallback := New(&Config{Output: &fallbackBuf})

	FromContext(NewContext(context.Background(), reqLog), fallback).Info("scoped")
	FromContext(context.Background(), fallback).Info("unscoped")

	if !strings.Contains(reqBuf.String(), "request_id=abc") || strings.Contains(reqBuf.String(), "unscoped") {
		t.Errorf("request logger got: %s", reqBuf.String())
	}
	if !strings.Contains(fallbackBuf.String(), "unscoped") {
		t.Errorf("fallback logger got: %s", fallbackBuf.String())
	}
	if FromContext(context.Background(), nil) == nil {
		t.Error("expected global logger when no fallback is given")
	}
}
