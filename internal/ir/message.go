package ir

import "fmt"

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Message is a diagnostic produced while compiling or materializing a
// module. Position is "file:line:col" when known.
type Message struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Text     string   `json:"text"`
	Position string   `json:"position,omitempty"`
}

// Errorf returns an error message.
func Errorf(code, format string, args ...any) Message {
	return Message{Severity: SeverityError, Code: code, Text: fmt.Sprintf(format, args...)}
}

// Warningf returns a warning message.
func Warningf(code, format string, args ...any) Message {
	return Message{Severity: SeverityWarning, Code: code, Text: fmt.Sprintf(format, args...)}
}

// Infof returns an informational message.
func Infof(format string, args ...any) Message {
	return Message{Severity: SeverityInfo, Text: fmt.Sprintf(format, args...)}
}

func (m Message) String() string {
	s := string(m.Severity)
	if m.Code != "" {
		s += " " + m.Code
	}
	if m.Position != "" {
		s = m.Position + ": " + s
	}
	return s + ": " + m.Text
}

// HasErrors reports whether msgs contains an error.
func HasErrors(msgs []Message) bool {
	for _, m := range msgs {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}
