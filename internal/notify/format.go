package notify

// Sidebar colors used by chat sinks.
const (
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
	ColorSuccess = "#36a64f"
)

// Color maps a notification kind to a sidebar color.
func Color(k Kind) string {
	switch k {
	case KindEscalation:
		return ColorWarning
	case KindWarning:
		return ColorError
	case KindSLA:
		return ColorError
	case KindInfo:
		return ColorSuccess
	default:
		return ColorInfo
	}
}

// Field is one labelled value rendered alongside a notification.
type Field struct {
	Name  string
	Value string
}

// Fields returns the labelled values shown under a notification's message.
// Empty values are skipped.
func Fields(n Notification) []Field {
	var out []Field
	add := func(name, value string) {
		if value != "" {
			out = append(out, Field{Name: name, Value: value})
		}
	}
	add("Chat", n.ChatID)
	add("Priority", n.Priority)
	if n.OperatorID == "" {
		add("Operator", "all")
	} else {
		add("Operator", n.OperatorID)
	}
	return out
}
