package marketapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metric is an indicator value. The backend sends most metrics as numbers
// but some as preformatted text ("N/A", "2.9T") or other JSON values.
// Text holds the value as received; Value is set when it parses as a number.
type Metric struct {
	Value    float64
	Text     string
	IsNumber bool
}

// Num returns a numeric Metric.
func Num(v float64) *Metric {
	return &Metric{Value: v, IsNumber: true}
}

// String renders the metric as the backend sent it.
func (m Metric) String() string {
	if m.Text != "" {
		return m.Text
	}
	if m.IsNumber {
		return strconv.FormatFloat(m.Value, 'f', -1, 64)
	}
	return ""
}

// UnmarshalJSON accepts any JSON value. Numbers and numeric strings set
// Value; anything else is kept verbatim in Text.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, string(data) == "null":
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*m = Metric{Value: v, Text: s, IsNumber: true}
			return nil
		}
		*m = Metric{Text: s}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("metric %s: %w", data, err)
		}
		*m = Metric{Value: v, Text: string(data), IsNumber: true}
	default:
		*m = Metric{Text: string(data)}
	}
	return nil
}

// MarshalJSON writes numbers as numbers and text as strings.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.IsNumber {
		return json.Marshal(m.Value)
	}
	return json.Marshal(m.Text)
}
