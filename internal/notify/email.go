package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyota-labs/backend-fuel/internal/common"
	"github.com/nyota-labs/backend-fuel/internal/events"
)

// LowStockNotifier emails the operations team when a depot drops into a
// critical or low stock band. Message formatting beyond a plain alert body is
// an external concern; this is only the seam.
type LowStockNotifier struct {
	Mail       common.EmailSender
	Enabled    bool
	From       string
	Recipients []string
}

// Notify implements the events.Notifier interface. Topics other than
// stock.low are ignored.
func (n LowStockNotifier) Notify(_ context.Context, event events.Event) error {
	if !n.Enabled || n.Mail == nil || event.Topic != events.TopicStockLow {
		return nil
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("low stock notify: decode payload: %w", err)
		}
	}
	subject := fmt.Sprintf("Low stock alert: %s %s", str(payload, "locationId"), str(payload, "fuelType"))
	body := fmt.Sprintf(
		"<p>Depot <b>%s</b> is running low on <b>%s</b>.</p><p>Current stock: %v litres (status: %v).</p>",
		str(payload, "locationId"), str(payload, "fuelType"), payload["currentStock"], payload["status"],
	)
	var joined error
	for _, to := range n.Recipients {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if err := n.Mail.Send(to, subject, body); err != nil {
			joined = err
		}
	}
	return joined
}

func str(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
