package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command delivers notifications by running a shell command template,
// e.g. "notify-send 'Switchboard' '{{.Title}}: {{.Message}}'".
type Command struct {
	Template string
}

func (c Command) Deliver(ctx context.Context, n Notification) error {
	if c.Template == "" {
		return nil
	}
	cmdStr := templateNotification(c.Template, n)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateNotification replaces placeholders in the command template.
func templateNotification(command string, n Notification) string {
	r := strings.NewReplacer(
		"{{.ID}}", n.ID,
		"{{.Type}}", string(n.Type),
		"{{.Operator}}", n.OperatorID,
		"{{.Title}}", n.Title,
		"{{.Message}}", n.Message,
		"{{.ChatID}}", n.ChatID,
		"{{.Priority}}", n.Priority,
	)
	return r.Replace(command)
}
