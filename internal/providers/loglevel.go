package providers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// LogLevel is a normalised log level.
type LogLevel string

const (
	LevelTrace     LogLevel = "trace"
	LevelDebug     LogLevel = "debug"
	LevelInfo      LogLevel = "info"
	LevelNotice    LogLevel = "notice"
	LevelWarning   LogLevel = "warning"
	LevelError     LogLevel = "error"
	LevelCritical  LogLevel = "critical"
	LevelAlert     LogLevel = "alert"
	LevelEmergency LogLevel = "emergency"
	LevelFatal     LogLevel = "fatal"
)

// LogLevelFields are the fields that carry a log level, checked in order.
var LogLevelFields = []string{"log.level", "log.level.keyword", "log_level", "log_level.keyword"}

// levelPrefixes maps raw level prefixes to normalised levels. Order matters:
// "err" must not shadow "emerg".
var levelPrefixes = []struct {
	prefix string
	level  LogLevel
}{
	{"trace", LevelTrace},
	{"debug", LevelDebug},
	{"info", LevelInfo},
	{"notice", LevelNotice},
	{"warn", LevelWarning},
	{"err", LevelError},
	{"crit", LevelCritical},
	{"alert", LevelAlert},
	{"emerg", LevelEmergency},
	{"fatal", LevelFatal},
}

var levelColors = map[LogLevel]string{
	LevelTrace:     "#d6dce6",
	LevelDebug:     "#becfe3",
	LevelInfo:      "#90b0d1",
	LevelNotice:    "#f6e0b9",
	LevelWarning:   "#f0c97c",
	LevelError:     "#e7664c",
	LevelCritical:  "#da4b36",
	LevelAlert:     "#c7311f",
	LevelEmergency: "#b01a0c",
	LevelFatal:     "#981000",
}

// CoalesceLogLevel normalises a raw level such as "WARN", "Err" or
// "informational". Unknown values report false.
func CoalesceLogLevel(raw string) (LogLevel, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}
	for _, p := range levelPrefixes {
		if strings.HasPrefix(v, p.prefix) {
			return p.level, true
		}
	}
	return "", false
}

// Color returns the palette colour of l; unknown levels have none.
func (l LogLevel) Color() string { return levelColors[l] }

// Label returns l capitalised, e.g. "Warning".
func (l LogLevel) Label() string {
	r, size := utf8.DecodeRuneInString(string(l))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r)) + string(l)[size:]
}

// RecordLogLevel returns the raw log level of rec from the first LogLevelFields
// entry that holds a string.
func RecordLogLevel(rec profile.Record) (string, bool) {
	for _, f := range LogLevelFields {
		if v, ok := rec.StringValue(f); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// LogLevelIndicator returns the row indicator of rec, or nil when it has no
// recognised log level.
func LogLevelIndicator(rec profile.Record) *profile.RowIndicator {
	raw, ok := RecordLogLevel(rec)
	if !ok {
		return nil
	}
	level, ok := CoalesceLogLevel(raw)
	if !ok {
		return nil
	}
	return &profile.RowIndicator{Color: level.Color(), Label: level.Label()}
}

// renderLogLevel renders a log level field as a coloured badge showing the raw value.
func renderLogLevel(rec profile.Record, field string) profile.Cell {
	raw, ok := rec.StringValue(field)
	if !ok || raw == "" {
		return profile.Cell{Text: "-"}
	}
	cell := profile.Cell{Text: raw, Badge: true}
	if level, ok := CoalesceLogLevel(raw); ok {
		cell.Color = level.Color()
	}
	return cell
}
