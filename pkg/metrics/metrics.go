package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const latencyWindow = 100

// series keeps a counter, an error counter and a bounded latency window.
type series struct {
	count   int64
	errors  int64
	latency []time.Duration
}

func (s *series) observe(success bool, latency time.Duration) {
	s.count++
	if !success {
		s.errors++
	}
	if len(s.latency) >= latencyWindow {
		s.latency = s.latency[1:]
	}
	s.latency = append(s.latency, latency)
}

func (s *series) avgSeconds() float64 {
	if len(s.latency) == 0 {
		return 0
	}
	var sum time.Duration
	for _, l := range s.latency {
		sum += l
	}
	return sum.Seconds() / float64(len(s.latency))
}

type registry struct {
	mu sync.RWMutex

	endpoints map[string]*series
	services  map[string]*series
	stages    map[string]*series

	turnOutcomes map[string]int64
	callActions  map[string]int64

	breakerState    map[string]string
	breakerFailures map[string]int64

	startTime time.Time
}

var global = newRegistry()

func newRegistry() *registry {
	return &registry{
		endpoints:       make(map[string]*series),
		services:        make(map[string]*series),
		stages:          make(map[string]*series),
		turnOutcomes:    make(map[string]int64),
		callActions:     make(map[string]int64),
		breakerState:    make(map[string]string),
		breakerFailures: make(map[string]int64),
		startTime:       time.Now(),
	}
}

// Reset clears all metrics. Tests only.
func Reset() {
	global = newRegistry()
}

func observe(m map[string]*series, key string, success bool, latency time.Duration) {
	s, ok := m[key]
	if !ok {
		s = &series{}
		m[key] = s
	}
	s.observe(success, latency)
}

// RecordRequest records one HTTP request against its route template.
func RecordRequest(endpoint string, success bool, latency time.Duration) {
	global.mu.Lock()
	defer global.mu.Unlock()
	observe(global.endpoints, endpoint, success, latency)
}

// RecordServiceCall records one outbound vendor call.
func RecordServiceCall(service string, success bool, latency time.Duration) {
	global.mu.Lock()
	defer global.mu.Unlock()
	observe(global.services, service, success, latency)
}

// RecordStage records one turn pipeline stage (fetch, stt, llm, tts, persist).
func RecordStage(stage string, success bool, latency time.Duration) {
	global.mu.Lock()
	defer global.mu.Unlock()
	observe(global.stages, stage, success, latency)
}

// RecordTurn counts a finished turn by outcome: ok, slow, failed, duplicate, dropped.
func RecordTurn(outcome string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.turnOutcomes[outcome]++
}

// RecordCallAction counts actions returned to the call platform by kind.
func RecordCallAction(kind string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.callActions[kind]++
}

func UpdateCircuitBreaker(service, state string, failures int64) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.breakerState[service] = state
	global.breakerFailures[service] = failures
}

func snapshot(m map[string]*series) map[string]interface{} {
	counts := make(map[string]int64, len(m))
	errs := make(map[string]int64, len(m))
	avg := make(map[string]float64, len(m))
	for k, s := range m {
		counts[k] = s.count
		errs[k] = s.errors
		avg[k] = s.avgSeconds()
	}
	return map[string]interface{}{
		"total":               counts,
		"errors":              errs,
		"latency_avg_seconds": avg,
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetMetrics returns a JSON-friendly snapshot.
func GetMetrics() map[string]interface{} {
	global.mu.RLock()
	defer global.mu.RUnlock()

	breakerState := make(map[string]string, len(global.breakerState))
	for k, v := range global.breakerState {
		breakerState[k] = v
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(global.startTime).Seconds(),
		"endpoints":      snapshot(global.endpoints),
		"services":       snapshot(global.services),
		"stages":         snapshot(global.stages),
		"turns":          copyCounts(global.turnOutcomes),
		"call_actions":   copyCounts(global.callActions),
		"circuit_breakers": map[string]interface{}{
			"state":    breakerState,
			"failures": copyCounts(global.breakerFailures),
		},
	}
}

// GetPrometheusMetrics renders the registry in Prometheus text format.
func GetPrometheusMetrics() string {
	global.mu.RLock()
	defer global.mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP callrouter_uptime_seconds Process uptime in seconds\n")
	b.WriteString("# TYPE callrouter_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "callrouter_uptime_seconds %.2f\n", time.Since(global.startTime).Seconds())

	writeSeries(&b, "callrouter_http_requests", "endpoint", global.endpoints)
	writeSeries(&b, "callrouter_vendor_calls", "service", global.services)
	writeSeries(&b, "callrouter_turn_stage", "stage", global.stages)
	writeCounts(&b, "callrouter_turns_total", "Finished turns by outcome", "outcome", global.turnOutcomes)
	writeCounts(&b, "callrouter_call_actions_total", "Call actions returned by kind", "action", global.callActions)

	b.WriteString("# HELP callrouter_circuit_breaker_open Circuit breaker open (1) or not (0)\n")
	b.WriteString("# TYPE callrouter_circuit_breaker_open gauge\n")
	for _, k := range sortedKeys(global.breakerState) {
		open := 0
		if global.breakerState[k] == "open" {
			open = 1
		}
		fmt.Fprintf(&b, "callrouter_circuit_breaker_open{service=%q} %d\n", k, open)
	}

	return b.String()
}

func writeSeries(b *strings.Builder, name, label string, m map[string]*series) {
	fmt.Fprintf(b, "# HELP %s_total Total %s\n# TYPE %s_total counter\n", name, label, name)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "%s_total{%s=%q} %d\n", name, label, k, m[k].count)
	}
	fmt.Fprintf(b, "# HELP %s_errors_total Failed %s\n# TYPE %s_errors_total counter\n", name, label, name)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "%s_errors_total{%s=%q} %d\n", name, label, k, m[k].errors)
	}
	fmt.Fprintf(b, "# HELP %s_latency_avg_seconds Average latency over the last %d samples\n# TYPE %s_latency_avg_seconds gauge\n", name, latencyWindow, name)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "%s_latency_avg_seconds{%s=%q} %.4f\n", name, label, k, m[k].avgSeconds())
	}
}

func writeCounts(b *strings.Builder, name, help, label string, m map[string]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, m[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
