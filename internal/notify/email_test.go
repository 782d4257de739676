package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/common"
	"github.com/nyota-labs/backend-fuel/internal/events"
)

func lowStockEvent(t *testing.T) events.Event {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"locationId":   "depot-a",
		"fuelType":     "PMS",
		"currentStock": 4_000,
		"status":       "critical",
	})
	require.NoError(t, err)
	return events.Event{Topic: events.TopicStockLow, AggregateID: "depot-a", Payload: payload}
}

func TestLowStockNotifierSendsToAllRecipients(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := LowStockNotifier{
		Mail:       mail,
		Enabled:    true,
		From:       "alerts@nyotafuel.co.ke",
		Recipients: []string{"ops@nyotafuel.co.ke", " depot-leads@nyotafuel.co.ke ", ""},
	}

	require.NoError(t, n.Notify(context.Background(), lowStockEvent(t)))
	require.Len(t, mail.Outbox, 2)
	require.Contains(t, mail.Outbox[0].Subject, "depot-a")
	require.Contains(t, mail.Outbox[0].HTML, "PMS")
}

func TestLowStockNotifierIgnoresOtherTopics(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := LowStockNotifier{Mail: mail, Enabled: true, Recipients: []string{"ops@nyotafuel.co.ke"}}

	ev := lowStockEvent(t)
	ev.Topic = events.TopicReservationCreated
	require.NoError(t, n.Notify(context.Background(), ev))
	require.Empty(t, mail.Outbox)
}

func TestLowStockNotifierDisabled(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := LowStockNotifier{Mail: mail, Enabled: false, Recipients: []string{"ops@nyotafuel.co.ke"}}

	require.NoError(t, n.Notify(context.Background(), lowStockEvent(t)))
	require.Empty(t, mail.Outbox)
}
