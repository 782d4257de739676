package events

// Topic constants for domain events emitted by the pricing and ledger core.
const (
	TopicReservationCreated   = "reservation.created"
	TopicReservationCommitted = "reservation.committed"
	TopicReservationReleased  = "reservation.released"
	TopicReservationExpired   = "reservation.expired"
	TopicStockRestocked       = "stock.restocked"
	TopicStockLow             = "stock.low"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicReservationCreated,
		TopicReservationCommitted,
		TopicReservationReleased,
		TopicReservationExpired,
		TopicStockRestocked,
		TopicStockLow,
	}
}
