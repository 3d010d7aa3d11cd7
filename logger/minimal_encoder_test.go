package logger

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

// TestMinimalEncoderNeverDiscardsFields ensures the encoder never silently
// drops log fields, whatever their type.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "rollup",
		Message:    "Rollup rendered",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String("tier", "beta"), "tier=beta"},
		{zap.String("package", "widget-lib"), "package=widget-lib"},
		{zap.Int("imports", 3), "imports=3"},
		{zap.Int("declarations", 42), "declarations=42"},
		{zap.Bool("stale", true), "stale=true"},
		{zap.Float64("ratio", 0.8), "ratio=0.8"},
		{zap.Duration("elapsed", 5*time.Millisecond), "elapsed=5ms"},
		{zap.String("field_with_underscores", "test"), "field_with_underscores=test"},
		{zap.Int32("int32_field", 42), "int32_field=42"},
	}

	fields := make([]zapcore.Field, 0, len(testFields))
	for _, tf := range testFields {
		fields = append(fields, tf.field)
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("EncodeEntry failed: %v", err)
	}
	output := stripANSI(buf.String())

	for _, tf := range testFields {
		if !strings.Contains(output, tf.mustFind) {
			t.Errorf("encoder dropped field: want %q in output %q", tf.mustFind, output)
		}
	}
}

func TestMinimalEncoderLevelBadges(t *testing.T) {
	encoder := newMinimalEncoder()

	tests := []struct {
		level zapcore.Level
		want  string
	}{
		{zapcore.WarnLevel, "WARN"},
		{zapcore.ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		buf, err := encoder.EncodeEntry(zapcore.Entry{
			Level:   tt.level,
			Time:    time.Now(),
			Message: "something happened",
		}, nil)
		if err != nil {
			t.Fatalf("EncodeEntry failed: %v", err)
		}
		if got := stripANSI(buf.String()); !strings.Contains(got, tt.want) {
			t.Errorf("level %s: want badge %q in %q", tt.level, tt.want, got)
		}
	}
}

func TestMinimalEncoderInfoHasNoBadge(t *testing.T) {
	encoder := newMinimalEncoder()

	buf, err := encoder.EncodeEntry(zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    time.Now(),
		Message: "quiet info line",
	}, nil)
	if err != nil {
		t.Fatalf("EncodeEntry failed: %v", err)
	}
	if got := stripANSI(buf.String()); strings.Contains(got, "INFO") {
		t.Errorf("info entries should carry no level badge, got %q", got)
	}
}

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rollup", "rollup"},
		{"rollup.report", "r.report"},
		{"tsfront.binder", "t.binder"},
	}

	for _, tt := range tests {
		if got := abbreviateName(tt.in); got != tt.want {
			t.Errorf("abbreviateName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	if currentTheme != "gruvbox" {
		t.Errorf("SetTheme(gruvbox) left theme %q", currentTheme)
	}

	// Unknown themes are ignored.
	SetTheme("solarized")
	if currentTheme != "gruvbox" {
		t.Errorf("unknown theme should be ignored, got %q", currentTheme)
	}
}
