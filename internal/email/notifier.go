package email

import (
	"context"
	"fmt"
)

// Notifier adapts a Sender into scheduler.Notifier, routing every failure
// notification to a single configured operator address.
type Notifier struct {
	sender Sender
	to     string
}

func NewNotifier(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

func (n *Notifier) Notify(ctx context.Context, jobName, reason string) error {
	if n.to == "" {
		return nil
	}
	subject := fmt.Sprintf("job %q needs attention", jobName)
	body := fmt.Sprintf("<p>Job <b>%s</b> did not complete normally.</p><p>%s</p>", jobName, reason)
	return n.sender.Send(ctx, n.to, subject, body)
}
