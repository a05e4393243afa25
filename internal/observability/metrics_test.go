package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/admin/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/admin/login", "POST", 200, 30*time.Millisecond)
	m.RecordRequest("/admin/login", "POST", 401, 20*time.Millisecond)
	m.RecordError("/admin/login", "POST", "UNAUTHORIZED")
	m.RecordAuth("admin", "login_failed")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/admin/login|POST|200"])
	assert.Equal(t, int64(1), snap.Requests["/admin/login|POST|401"])
	assert.Equal(t, int64(1), snap.Errors["/admin/login|POST|UNAUTHORIZED"])
	assert.Equal(t, int64(1), snap.Auth["admin|login_failed"])
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.InDelta(t, 20.0, snap.AvgLatencyMS, 0.001)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordAuth("user", "refreshed")
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
