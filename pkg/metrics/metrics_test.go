package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestRecordAndSnapshot(t *testing.T) {
	Reset()

	RecordStage("stt", true, 200*time.Millisecond)
	RecordStage("stt", false, 400*time.Millisecond)
	RecordTurn("ok")
	RecordTurn("ok")
	RecordCallAction("play")
	UpdateCircuitBreaker("soniox", "open", 5)

	m := GetMetrics()

	stages := m["stages"].(map[string]interface{})
	if got := stages["total"].(map[string]int64)["stt"]; got != 2 {
		t.Errorf("stt total = %d, want 2", got)
	}
	if got := stages["errors"].(map[string]int64)["stt"]; got != 1 {
		t.Errorf("stt errors = %d, want 1", got)
	}
	avg := stages["latency_avg_seconds"].(map[string]float64)["stt"]
	if avg < 0.29 || avg > 0.31 {
		t.Errorf("stt avg latency = %f, want 0.3", avg)
	}
	if got := m["turns"].(map[string]int64)["ok"]; got != 2 {
		t.Errorf("turns ok = %d, want 2", got)
	}
}

func TestPrometheusOutput(t *testing.T) {
	Reset()
	RecordRequest("/calls", true, time.Millisecond)
	RecordTurn("failed")
	UpdateCircuitBreaker("elevenlabs", "open", 3)

	out := GetPrometheusMetrics()
	for _, want := range []string{
		`callrouter_http_requests_total{endpoint="/calls"} 1`,
		`callrouter_turns_total{outcome="failed"} 1`,
		`callrouter_circuit_breaker_open{service="elevenlabs"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLatencyWindowIsBounded(t *testing.T) {
	Reset()
	for i := 0; i < latencyWindow+50; i++ {
		RecordServiceCall("deepseek", true, time.Millisecond)
	}
	global.mu.RLock()
	defer global.mu.RUnlock()
	if n := len(global.services["deepseek"].latency); n != latencyWindow {
		t.Errorf("window size = %d, want %d", n, latencyWindow)
	}
}
