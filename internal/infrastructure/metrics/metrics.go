package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the money-movement core.
// A nil *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	transfersCompleted prometheus.Counter
	transferFailures   *prometheus.CounterVec
	transferRetries    prometheus.Counter
	transferDuration   prometheus.Histogram
	accrualRuns        prometheus.Counter
	accrualApplied     prometheus.Counter
	accrualSkipped     prometheus.Counter
	ledgerAppendFailed prometheus.Counter
	accountsRegistered prometheus.Counter
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		transfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_transfers_completed_total",
			Help: "Total number of committed transfers",
		}),
		transferFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_transfer_failures_total",
			Help: "Total number of failed transfers by reason",
		}, []string{"reason"}),
		transferRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_transfer_conflict_retries_total",
			Help: "Total number of transfer attempts retried after a concurrency conflict",
		}),
		transferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_transfer_duration_seconds",
			Help:    "Transfer duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		accrualRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accrual_runs_total",
			Help: "Total number of interest accrual sweeps",
		}),
		accrualApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accrual_accounts_applied_total",
			Help: "Total number of accounts interest was applied to",
		}),
		accrualSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accrual_accounts_skipped_total",
			Help: "Total number of accounts skipped in a sweep due to conflicts or errors",
		}),
		ledgerAppendFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_ledger_append_failures_total",
			Help: "Total number of ledger writes that failed after a committed transfer",
		}),
		accountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accounts_registered_total",
			Help: "Total number of accounts created through registration",
		}),
	}
}

func (m *Metrics) TransferCompleted() {
	if m != nil {
		m.transfersCompleted.Inc()
	}
}

func (m *Metrics) TransferFailed(reason string) {
	if m != nil {
		m.transferFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) TransferRetried() {
	if m != nil {
		m.transferRetries.Inc()
	}
}

func (m *Metrics) ObserveTransferDuration(seconds float64) {
	if m != nil {
		m.transferDuration.Observe(seconds)
	}
}

func (m *Metrics) AccrualRun() {
	if m != nil {
		m.accrualRuns.Inc()
	}
}

func (m *Metrics) AccrualApplied() {
	if m != nil {
		m.accrualApplied.Inc()
	}
}

func (m *Metrics) AccrualSkipped() {
	if m != nil {
		m.accrualSkipped.Inc()
	}
}

func (m *Metrics) LedgerAppendFailed() {
	if m != nil {
		m.ledgerAppendFailed.Inc()
	}
}

func (m *Metrics) AccountRegistered() {
	if m != nil {
		m.accountsRegistered.Inc()
	}
}
