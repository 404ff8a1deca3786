package observability

// Metric name prefixes
const (
	MetricPrefix = "parlayz"
)

// Metric names
const (
	// Ledger metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Pool metrics
	EntriesCreatedTotal    = MetricPrefix + ".entries.created_total"
	EventTransitionsTotal  = MetricPrefix + ".events.transitions_total"
	EventsSettledTotal     = MetricPrefix + ".events.settled_total"
	SettlementPayoutAmount = MetricPrefix + ".events.settlement_payout"

	// Offer metrics
	OfferTransitionsTotal = MetricPrefix + ".offers.transitions_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelState     = "state"
	LabelPool      = "pool"
)

// Pool kinds
const (
	PoolMain = "main"
	PoolMini = "mini"
)
