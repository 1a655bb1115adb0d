package metrics

type Counter interface {
	Inc()
}

type Adder interface {
	Add(delta float64)
}

type Gauge interface {
	Set(value float64)
}

type Metrics struct {
	Harvests         Counter
	HarvestFailures  Counter
	SwapsExecuted    Counter
	DepositsExecuted Counter
	WithdrawalsDone  Counter
	ProfitReported   Adder
	LossRealized     Adder
	TotalAssets      Gauge
	TotalDebt        Gauge
}

type noopCounter struct{}

func (noopCounter) Inc()        {}
func (noopCounter) Add(float64) {}
func (noopCounter) Set(float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		Harvests:         n,
		HarvestFailures:  n,
		SwapsExecuted:    n,
		DepositsExecuted: n,
		WithdrawalsDone:  n,
		ProfitReported:   n,
		LossRealized:     n,
		TotalAssets:      n,
		TotalDebt:        n,
	}
}
