package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "lusd_sp_engine"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

func (p promCounter) Add(delta float64) {
	if delta > 0 {
		p.counter.Add(delta)
	}
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (p promGauge) Set(value float64) {
	p.gauge.Set(value)
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	harvests := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "harvests_total",
		Help:      "Total number of completed harvest cycles.",
	})
	harvestFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "harvest_failures_total",
		Help:      "Total number of harvest cycles aborted by an external call failure.",
	})
	swaps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "swaps_executed_total",
		Help:      "Total number of reward conversion swaps executed.",
	})
	deposits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "deposits_total",
		Help:      "Total number of stability pool deposits.",
	})
	withdrawals := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "withdrawals_total",
		Help:      "Total number of stability pool withdrawals.",
	})
	profit := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "profit_reported_want",
		Help:      "Cumulative profit reported to the vault, in want units.",
	})
	loss := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "loss_realized_want",
		Help:      "Cumulative realized loss reported to the vault, in want units.",
	})
	totalAssets := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "estimated_total_assets_want",
		Help:      "Most recent estimated total assets, in want units.",
	})
	totalDebt := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "vault_total_debt_want",
		Help:      "Most recent vault total debt for this strategy, in want units.",
	})

	registry.MustRegister(harvests, harvestFailures, swaps, deposits, withdrawals, profit, loss, totalAssets, totalDebt)

	m := &Metrics{
		Harvests:         promCounter{harvests},
		HarvestFailures:  promCounter{harvestFailures},
		SwapsExecuted:    promCounter{swaps},
		DepositsExecuted: promCounter{deposits},
		WithdrawalsDone:  promCounter{withdrawals},
		ProfitReported:   promCounter{profit},
		LossRealized:     promCounter{loss},
		TotalAssets:      promGauge{totalAssets},
		TotalDebt:        promGauge{totalDebt},
	}

	return &Prometheus{Metrics: m, registry: registry}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
