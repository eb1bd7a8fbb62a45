// Package metric measures the runtime side of a patch: committed
// transactions, applied jobs and their failures.
package metric

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "patch_engine"

const (
	// TransactionCounter counts applied transactions.
	TransactionCounter = "Transactions"
	// JobCounter counts applied jobs.
	JobCounter = "Jobs"
	// FailedJobCounter counts jobs the runtime could not satisfy.
	FailedJobCounter = "FailedJobs"
	// ModuleCounter counts modules currently integrated.
	ModuleCounter = "Modules"
	// WaitCounter counts control side waits on acknowledgement.
	WaitCounter = "Waits"
	// LatencyCounter is the time between last commit and its application.
	LatencyCounter = "Latency"
)

var counters = []string{
	TransactionCounter,
	JobCounter,
	FailedJobCounter,
	ModuleCounter,
	WaitCounter,
	LatencyCounter,
}

// Metric holds engine counters. Nil Metric is valid and measures nothing.
type Metric struct {
	name         string
	transactions atomic.Int64
	jobs         atomic.Int64
	failed       atomic.Int64
	modules      atomic.Int64
	waits        atomic.Int64
	latency      duration
	descs        map[string]*prometheus.Desc
}

// New returns a metric labelled with provided engine name.
func New(name string) *Metric {
	m := Metric{
		name:  name,
		descs: make(map[string]*prometheus.Desc, len(counters)),
	}
	labels := prometheus.Labels{"engine": name}
	help := map[string]string{
		TransactionCounter: "Number of applied transactions.",
		JobCounter:         "Number of applied jobs.",
		FailedJobCounter:   "Number of jobs the engine could not satisfy.",
		ModuleCounter:      "Number of integrated modules.",
		WaitCounter:        "Number of waits for transaction acknowledgement.",
		LatencyCounter:     "Seconds between commit and application of the last transaction.",
	}
	for _, c := range counters {
		m.descs[c] = prometheus.NewDesc(prometheus.BuildFQName(namespace, "", snake(c)), help[c], nil, labels)
	}
	return &m
}

// Transaction captures an applied transaction of n jobs, failed of which
// could not be satisfied. committedAt is when control side committed it.
func (m *Metric) Transaction(n, failed int, committedAt time.Time) {
	if m == nil {
		return
	}
	m.transactions.Add(1)
	m.jobs.Add(int64(n))
	m.failed.Add(int64(failed))
	m.latency.set(time.Since(committedAt))
}

// Integrated adjusts number of live modules by delta.
func (m *Metric) Integrated(delta int) {
	if m == nil {
		return
	}
	m.modules.Add(int64(delta))
}

// Wait captures a wait for acknowledgement.
func (m *Metric) Wait() {
	if m == nil {
		return
	}
	m.waits.Add(1)
}

// Measure returns current values of all counters.
func (m *Metric) Measure() map[string]string {
	if m == nil {
		return nil
	}
	return map[string]string{
		TransactionCounter: fmt.Sprint(m.transactions.Load()),
		JobCounter:         fmt.Sprint(m.jobs.Load()),
		FailedJobCounter:   fmt.Sprint(m.failed.Load()),
		ModuleCounter:      fmt.Sprint(m.modules.Load()),
		WaitCounter:        fmt.Sprint(m.waits.Load()),
		LatencyCounter:     m.latency.String(),
	}
}

// Describe implements prometheus.Collector.
func (m *Metric) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range counters {
		ch <- m.descs[c]
	}
}

// Collect implements prometheus.Collector.
func (m *Metric) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(m.descs[TransactionCounter], prometheus.CounterValue, float64(m.transactions.Load()))
	ch <- prometheus.MustNewConstMetric(m.descs[JobCounter], prometheus.CounterValue, float64(m.jobs.Load()))
	ch <- prometheus.MustNewConstMetric(m.descs[FailedJobCounter], prometheus.CounterValue, float64(m.failed.Load()))
	ch <- prometheus.MustNewConstMetric(m.descs[ModuleCounter], prometheus.GaugeValue, float64(m.modules.Load()))
	ch <- prometheus.MustNewConstMetric(m.descs[WaitCounter], prometheus.CounterValue, float64(m.waits.Load()))
	ch <- prometheus.MustNewConstMetric(m.descs[LatencyCounter], prometheus.GaugeValue, m.latency.get().Seconds())
}

func snake(counter string) string {
	switch counter {
	case FailedJobCounter:
		return "failed_jobs_total"
	case ModuleCounter:
		return "modules"
	case LatencyCounter:
		return "latency_seconds"
	}
	var s []byte
	for i := 0; i < len(counter); i++ {
		c := counter[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		s = append(s, c)
	}
	return string(s) + "_total"
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", v.get())
}

func (v *duration) get() time.Duration {
	return time.Duration(atomic.LoadInt64(&v.d))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
