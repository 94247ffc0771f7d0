package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики приложения. Нулевой *Metrics допустим: методы ничего не делают.
type Metrics struct {
	reg      *prometheus.Registry
	checkIns *prometheus.CounterVec
	purges   *prometheus.CounterVec
	exports  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presenca_checkins_total",
			Help: "Check-in submissions by result.",
		}, []string{"result"}),
		purges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presenca_ledger_purges_total",
			Help: "Ledger purges by trigger.",
		}, []string{"trigger"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presenca_exports_total",
			Help: "Generated archive documents by kind.",
		}, []string{"kind"}),
	}
	m.reg.MustRegister(
		m.checkIns, m.purges, m.exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CheckIn(result string) {
	if m != nil {
		m.checkIns.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Purge(trigger string) {
	if m != nil {
		m.purges.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) Export(kind string) {
	if m != nil {
		m.exports.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
