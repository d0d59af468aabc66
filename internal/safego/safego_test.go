package safego

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/admin-console/admin-console/internal/telemetry"
)

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not complete within timeout")
	}
}

func panicCounterValue(t *testing.T) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	telemetry.GoroutinePanicsTotal.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			t.Fatalf("failed to read counter: %v", err)
		}
		return dm.GetCounter().GetValue()
	}
	return 0
}

func TestGo_RunsFunction(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	Go(func() {
		defer wg.Done()
	})

	waitFor(t, &wg)
}

func TestGo_RecoversPanicAndCounts(t *testing.T) {
	before := panicCounterValue(t)

	var wg sync.WaitGroup
	wg.Add(1)

	// This must not crash the test process.
	Go(func() {
		defer wg.Done()
		panic("intentional panic in test")
	})

	waitFor(t, &wg)

	// The counter increments after the deferred wg.Done fires, so poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if panicCounterValue(t) >= before+1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutine_panics_total did not increment: before=%v after=%v", before, panicCounterValue(t))
}
