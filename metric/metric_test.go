package metric_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/patch/metric"
)

func TestMetric(t *testing.T) {
	m := metric.New("test")
	routines, transactions := 4, 25
	var wg sync.WaitGroup
	wg.Add(routines)
	for i := 0; i < routines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < transactions; j++ {
				m.Transaction(3, 1, time.Now())
				m.Integrated(1)
			}
			m.Wait()
		}()
	}
	wg.Wait()

	values := m.Measure()
	assert.Equal(t, "100", values[metric.TransactionCounter])
	assert.Equal(t, "300", values[metric.JobCounter])
	assert.Equal(t, "100", values[metric.FailedJobCounter])
	assert.Equal(t, "100", values[metric.ModuleCounter])
	assert.Equal(t, "4", values[metric.WaitCounter])
}

func TestNilMetric(t *testing.T) {
	var m *metric.Metric
	m.Transaction(1, 0, time.Now())
	m.Integrated(1)
	m.Wait()
	assert.Nil(t, m.Measure())
}

func TestCollector(t *testing.T) {
	m := metric.New("collector")
	m.Transaction(2, 0, time.Now())
	registry := prometheus.NewPedanticRegistry()
	assert.NoError(t, registry.Register(m))
	assert.Equal(t, 6, testutil.CollectAndCount(m))

	expected := `
# HELP patch_engine_jobs_total Number of applied jobs.
# TYPE patch_engine_jobs_total counter
patch_engine_jobs_total{engine="collector"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected), "patch_engine_jobs_total"))
}
