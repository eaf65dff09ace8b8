package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	t.Parallel()

	c := NewCollector(&Config{Namespace: "test"})

	c.RecordOpen("r")
	c.RecordOpen("r")
	c.RecordOpen("w")
	c.RecordRead(OutcomeOK)
	c.RecordRead(OutcomeMissing)
	c.RecordWrite()
	c.RecordCellSwitch()
	c.RecordBatchSkip()
	c.ObserveReadDuration(5 * time.Millisecond)

	if got := testutil.ToFloat64(c.opens.WithLabelValues("r")); got != 2 {
		t.Errorf("opens{mode=r} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.opens.WithLabelValues("w")); got != 1 {
		t.Errorf("opens{mode=w} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.reads.WithLabelValues(OutcomeOK)); got != 1 {
		t.Errorf("reads{outcome=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.reads.WithLabelValues(OutcomeCorrupt)); got != 0 {
		t.Errorf("reads{outcome=corrupt} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.writes); got != 1 {
		t.Errorf("writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cellSwitches); got != 1 {
		t.Errorf("cellSwitches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.batchSkips); got != 1 {
		t.Errorf("batchSkips = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.RecordOpen("r")
	c.RecordRead(OutcomeOK)
	c.RecordWrite()
	c.RecordCellSwitch()
	c.RecordBatchSkip()
	c.ObserveReadDuration(time.Millisecond)
}

func TestCollectorGather(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.RecordWrite()

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families gathered")
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "gridstore_writes_total" {
			found = true
		}
	}
	if !found {
		t.Error("gridstore_writes_total not gathered under default namespace")
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	if NewCollector(nil).Handler() == nil {
		t.Error("Handler() returned nil")
	}
}
