package tui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/thruflo/ranker/internal/session"
)

// Notifier delivers one-shot notices.
// In the foreground it uses the terminal bell; otherwise OS-native notifications.
type Notifier struct {
	out io.Writer

	// osNotify is swapped out in tests.
	osNotify func(title, message string) error
}

// NewNotifier creates a Notifier that writes bell to the given output.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out, osNotify: notifyOS}
}

// Bell writes the terminal bell character to output.
func (n *Notifier) Bell() {
	fmt.Fprint(n.out, Bell)
}

// NotifyOS sends an OS-native notification.
// On macOS, this uses osascript to display a notification.
// On Linux, it uses notify-send when available. Elsewhere it is a no-op.
func (n *Notifier) NotifyOS(title, message string) error {
	return n.osNotify(title, message)
}

// NotifyAttention rings the bell when isForeground is true, and sends an OS
// notification otherwise.
func (n *Notifier) NotifyAttention(title, message string, isForeground bool) error {
	if isForeground {
		n.Bell()
		return nil
	}
	return n.NotifyOS(title, message)
}

func notifyOS(title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		path, err := exec.LookPath("notify-send")
		if err != nil {
			return nil
		}
		return exec.Command(path, title, message).Run()
	default:
		return nil
	}
}

// NotificationReason represents why a notification is being sent.
type NotificationReason int

const (
	NotifyReasonCompleted NotificationReason = iota
	NotifyReasonFailed
)

// String returns a human-readable title for the notification reason.
func (r NotificationReason) String() string {
	switch r {
	case NotifyReasonCompleted:
		return "Analysis Complete"
	case NotifyReasonFailed:
		return "Analysis Failed"
	default:
		return "Ranker"
	}
}

// ReasonFor maps a notice to its reason. ok is false for non-terminal statuses.
func ReasonFor(notice session.Notice) (NotificationReason, bool) {
	switch notice.Status {
	case session.StatusCompleted:
		return NotifyReasonCompleted, true
	case session.StatusFailed:
		return NotifyReasonFailed, true
	default:
		return 0, false
	}
}

// NotifyNotice delivers a session notice.
func (n *Notifier) NotifyNotice(notice session.Notice, isForeground bool) error {
	reason, ok := ReasonFor(notice)
	if !ok {
		return nil
	}
	return n.NotifyAttention("ranker: "+reason.String(), notice.Message(), isForeground)
}
