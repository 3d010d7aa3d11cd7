package logger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Color palette plumbing for console output.
const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// Gruvbox Dark color palette (warm, muted, easy on eyes)
type gruvboxColors struct {
	fg       string
	aqua     string
	orange   string
	yellow   string
	green    string
	blue     string
	purple   string
	red      string
	redBg    string
	yellowBg string
}

var gruvbox = gruvboxColors{
	fg:       "\x1b[38;5;223m", // Soft cream (#ebdbb2)
	aqua:     "\x1b[38;5;108m", // Muted cyan-green (#8ec07c)
	orange:   "\x1b[38;5;208m", // Warm orange (#fe8019)
	yellow:   "\x1b[38;5;214m", // Soft yellow (#fabd2f)
	green:    "\x1b[38;5;142m", // Muted green (#b8bb26)
	blue:     "\x1b[38;5;109m", // Soft blue (#83a598)
	purple:   "\x1b[38;5;175m", // Muted purple (#d3869b)
	red:      "\x1b[38;5;167m", // Warm red (#fb4934)
	redBg:    "\x1b[48;5;88m",  // Dark red background
	yellowBg: "\x1b[48;5;58m",  // Dark yellow background
}

// Everforest Dark color palette (natural forest greens)
type everforestColors struct {
	fg       string
	green    string
	aqua     string
	orange   string
	yellow   string
	red      string
	redBg    string
	yellowBg string
}

var everforest = everforestColors{
	fg:       "\x1b[38;5;223m", // Soft beige (#d3c6aa)
	green:    "\x1b[38;5;108m", // Bright green (#a7c080)
	aqua:     "\x1b[38;5;109m", // Blue-green (#7fbbb3)
	orange:   "\x1b[38;5;208m", // Warm orange (#e69875)
	yellow:   "\x1b[38;5;179m", // Soft yellow (#dbbc7f)
	red:      "\x1b[38;5;167m", // Warm red (#e67e80)
	redBg:    "\x1b[48;5;52m",  // Dark red background
	yellowBg: "\x1b[48;5;58m",  // Dark yellow background
}

// Current active theme (set by Initialize from the environment)
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output
func SetTheme(theme string) {
	if theme == "everforest" || theme == "gruvbox" {
		currentTheme = theme
	}
}

func colorTime() string {
	if currentTheme == "everforest" {
		return everforest.green
	}
	return gruvbox.aqua
}

func colorComponent() string {
	if currentTheme == "everforest" {
		return everforest.orange
	}
	return gruvbox.orange
}

func colorValue() string {
	if currentTheme == "everforest" {
		return everforest.aqua
	}
	return gruvbox.blue
}

func colorNumber() string {
	if currentTheme == "everforest" {
		return everforest.green
	}
	return gruvbox.purple
}

func colorFg() string {
	if currentTheme == "everforest" {
		return everforest.fg
	}
	return gruvbox.fg
}

func colorWarn() (string, string) {
	if currentTheme == "everforest" {
		return everforest.yellow, everforest.yellowBg
	}
	return gruvbox.yellow, gruvbox.yellowBg
}

func colorError() (string, string) {
	if currentTheme == "everforest" {
		return everforest.red, everforest.redBg
	}
	return gruvbox.red, gruvbox.redBg
}

// minimalEncoder implements a calm, compact console encoder with theme
// support. Format: "13:04:35  rollup  Rollup rendered  tier=beta imports=3"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
	buf             *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	baseEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return &minimalEncoder{
		Encoder: baseEncoder,
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime())
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level badge only for WARN and above; info stays quiet.
	if ent.Level != zapcore.InfoLevel && ent.Level != zapcore.DebugLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent())
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorFg())
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(formatFields(fields))
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	warnColor, warnBg := colorWarn()
	errColor, errBg := colorError()

	switch level {
	case zapcore.WarnLevel:
		return colorBold + warnBg + warnColor + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + errBg + errColor + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + errBg + errColor + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// abbreviateName shortens component names: rollup.report -> r.report
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue extracts the value from a zap field across field types.
func fieldValue(field zapcore.Field) string {
	switch {
	case field.Type == zapcore.StringType:
		return field.String
	case isIntegerField(field.Type):
		return fmt.Sprintf("%d", field.Integer)
	case field.Type == zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case field.Type == zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
	case field.Type == zapcore.Float32Type:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(field.Integer)))
	case field.Type == zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case field.Interface != nil:
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

func isIntegerField(t zapcore.FieldType) bool {
	switch t {
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return true
	}
	return false
}

// formatFields renders structured fields as dim key=value pairs with
// theme-aware value coloring: numbers one color, everything else another.
func formatFields(fields []zapcore.Field) string {
	fg := colorFg()
	var pairs []string
	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		valColor := colorValue()
		if isIntegerField(field.Type) {
			valColor = colorNumber()
		}
		pairs = append(pairs, fg+field.Key+"="+colorReset+valColor+val+colorReset)
	}
	return strings.Join(pairs, " ")
}
