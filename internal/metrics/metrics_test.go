package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	storeOperationsTotal.Reset()

	RecordOperation("set_status", true)
	RecordOperation("set_status", true)
	RecordOperation("set_status", false)

	if got := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("set_status", ResultApplied)); got != 2 {
		t.Errorf("applied = %v, want 2", got)
	}
	if got := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("set_status", ResultNoop)); got != 1 {
		t.Errorf("noop = %v, want 1", got)
	}
}

func TestRecordSave(t *testing.T) {
	persistSavesTotal.Reset()

	RecordSave(nil)
	RecordSave(errors.New("quota"))

	if got := testutil.ToFloat64(persistSavesTotal.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("ok = %v", got)
	}
	if got := testutil.ToFloat64(persistSavesTotal.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("error = %v", got)
	}
}

func TestRecordLoad(t *testing.T) {
	persistLoadsTotal.Reset()

	RecordLoad(ResultCorrupt)

	if got := testutil.ToFloat64(persistLoadsTotal.WithLabelValues(ResultCorrupt)); got != 1 {
		t.Errorf("corrupt = %v", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	httpRequestDuration.Reset()

	RecordHTTPRequest("GET", "/api/stats", "200", 0.002)
	RecordHTTPRequest("GET", "/api/stats", "200", 0.02)

	if got := testutil.CollectAndCount(httpRequestDuration); got != 1 {
		t.Errorf("series = %d, want 1", got)
	}
}

func TestSSEClientsGauge(t *testing.T) {
	t.Cleanup(func() { SetSSEClientSource(nil) })

	if got := testutil.ToFloat64(sseClients); got != 0 {
		t.Errorf("without source = %v, want 0", got)
	}

	n := 3
	SetSSEClientSource(func() int { return n })
	if got := testutil.ToFloat64(sseClients); got != 3 {
		t.Errorf("clients = %v, want 3", got)
	}
	n = 1
	if got := testutil.ToFloat64(sseClients); got != 1 {
		t.Errorf("clients after change = %v, want 1", got)
	}
}
