package uptime

import (
	"fmt"
	"regexp"
	"strings"

	"prtg-extract/internal/models"
)

// ValueSource recovers the raw channel tokens of samples[i]. ok is false when
// no values can be bound to the sample, which makes it omitted.
type ValueSource interface {
	RawValues(samples []models.HistoricalSample, i int) (tokens []string, ok bool)
}

// Structured reads the values decoded into each sample. A sample whose value
// field was present but empty binds with no tokens; only a sample without the
// field is unbound.
type Structured struct{}

func (Structured) RawValues(samples []models.HistoricalSample, i int) ([]string, bool) {
	s := samples[i]
	return s.RawValues, s.HasValues || len(s.RawValues) > 0
}

var rawValuePattern = regexp.MustCompile(`"value_raw"\s*:\s*(".*?"|[0-9]+\.?[0-9]*)`)

// TextScan recovers values from the serialized payload. Each sample's window
// starts at the first occurrence of its quoted timestamp (searched from the
// beginning of the text) and ends where the next sample's timestamp appears.
type TextScan struct {
	Payload string
}

func (t TextScan) RawValues(samples []models.HistoricalSample, i int) ([]string, bool) {
	start := strings.Index(t.Payload, quote(samples[i].Timestamp))
	if start < 0 {
		return nil, false
	}

	end := len(t.Payload)
	if i+1 < len(samples) && samples[i+1].Timestamp != "" {
		if off := strings.Index(t.Payload[start:], quote(samples[i+1].Timestamp)); off >= 0 {
			end = start + off
		}
	}

	matches := rawValuePattern.FindAllStringSubmatch(t.Payload[start:end], -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens, true
}

func quote(s string) string {
	return `"` + s + `"`
}

// Mode selects the ValueSource used for a payload
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeStructured Mode = "structured"
	ModeTextScan   Mode = "textscan"
)

// ParseMode validates a mode name; empty means auto
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeStructured, ModeTextScan:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, s)
	}
}

// SourceFor picks the value source for one response. Auto uses the decoded
// values when any sample carries them and falls back to scanning the text.
func SourceFor(mode Mode, data models.HistoricData) ValueSource {
	switch mode {
	case ModeStructured:
		return Structured{}
	case ModeTextScan:
		return TextScan{Payload: data.Raw}
	}
	for _, s := range data.Samples {
		if s.HasValues || len(s.RawValues) > 0 {
			return Structured{}
		}
	}
	return TextScan{Payload: data.Raw}
}
