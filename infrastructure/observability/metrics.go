package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parlayz/config"
	"parlayz/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the settlement service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	enabled       bool
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	balanceTransactionsCounter   metric.Int64Counter
	entriesCreatedCounter        metric.Int64Counter
	eventTransitionsCounter      metric.Int64Counter
	eventsSettledCounter         metric.Int64Counter
	settlementPayoutHist         metric.Float64Histogram
	offerTransitionsCounter      metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.markInitialized(false)
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.markInitialized(false)
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	return mp.InitializeWithReader(reader)
}

// InitializeWithReader builds the meter provider around an explicit reader.
// Tests pass a manual reader to collect what was recorded.
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("parlayz")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.enabled = true
	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) markInitialized(enabled bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.enabled = enabled
	mp.initialized = true
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(
		BalanceTransactionsTotal,
		metric.WithDescription("Total number of ledger debits and credits"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}

	mp.entriesCreatedCounter, err = mp.meter.Int64Counter(
		EntriesCreatedTotal,
		metric.WithDescription("Total number of entries committed to events and mini-pools"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create entries counter: %w", err)
	}

	mp.eventTransitionsCounter, err = mp.meter.Int64Counter(
		EventTransitionsTotal,
		metric.WithDescription("Total number of event state transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create event transitions counter: %w", err)
	}

	mp.eventsSettledCounter, err = mp.meter.Int64Counter(
		EventsSettledTotal,
		metric.WithDescription("Total number of settled events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create events settled counter: %w", err)
	}

	mp.settlementPayoutHist, err = mp.meter.Float64Histogram(
		SettlementPayoutAmount,
		metric.WithDescription("Credits paid out per settled event"),
		metric.WithUnit("{credit}"),
		metric.WithExplicitBucketBoundaries(0, 100, 500, 1000, 5000, 10000, 50000, 100000),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement payout histogram: %w", err)
	}

	mp.offerTransitionsCounter, err = mp.meter.Int64Counter(
		OfferTransitionsTotal,
		metric.WithDescription("Total number of P2P offer state transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create offer transitions counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Subscribe records domain events emitted on bus
func (mp *MetricsProvider) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(mp.handleEvent)
}

func (mp *MetricsProvider) handleEvent(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.RecordBalanceTransaction(ctx, string(e.TransactionType))
	case events.EntryCreatedEvent:
		pool := PoolMain
		if e.MiniPoolID != nil {
			pool = PoolMini
		}
		mp.RecordEntryCreated(ctx, pool)
	case events.EventStateChangeEvent:
		mp.RecordEventTransition(ctx, string(e.NewState))
	case events.OfferStateChangeEvent:
		mp.RecordOfferTransition(ctx, string(e.NewState))
	case events.EventSettledEvent:
		total, _ := e.TotalPaid.Float64()
		mp.RecordSettlement(ctx, total)
	}
}

// RecordBalanceTransaction records a ledger debit or credit
func (mp *MetricsProvider) RecordBalanceTransaction(ctx context.Context, transactionType string) {
	if !mp.isEnabled() {
		return
	}

	mp.balanceTransactionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelType, transactionType),
		),
	)
}

// RecordEntryCreated records a stake committed to the main pool or a mini-pool
func (mp *MetricsProvider) RecordEntryCreated(ctx context.Context, pool string) {
	if !mp.isEnabled() {
		return
	}

	mp.entriesCreatedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelPool, pool),
		),
	)
}

// RecordEventTransition records an event entering state
func (mp *MetricsProvider) RecordEventTransition(ctx context.Context, state string) {
	if !mp.isEnabled() {
		return
	}

	mp.eventTransitionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelState, state),
		),
	)
}

// RecordOfferTransition records an offer entering state
func (mp *MetricsProvider) RecordOfferTransition(ctx context.Context, state string) {
	if !mp.isEnabled() {
		return
	}

	mp.offerTransitionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelState, state),
		),
	)
}

// RecordSettlement records a completed settlement and its total payout
func (mp *MetricsProvider) RecordSettlement(ctx context.Context, totalPaid float64) {
	if !mp.isEnabled() {
		return
	}

	mp.eventsSettledCounter.Add(ctx, 1)
	mp.settlementPayoutHist.Record(ctx, totalPaid)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(ctx context.Context, eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
