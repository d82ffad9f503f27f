package services

import (
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	totalFrames    atomic.Int64
	decodeErrors   atomic.Int64
	detectErrors   atomic.Int64
	totalLatency   atomic.Int64
	lastFrameTime  atomic.Int64
	capturesAuto   atomic.Int64
	capturesManual atomic.Int64
	countdowns     atomic.Int64
	cancellations  atomic.Int64

	wsConnections atomic.Int64
	wsMessages    atomic.Int64
	wsErrors      atomic.Int64
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

func NewMetrics() *Metrics {
	return &Metrics{}
}

func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics()
	})
	return metricsInstance
}

func (m *Metrics) IncrementFrames() {
	m.totalFrames.Add(1)
	m.lastFrameTime.Store(time.Now().Unix())
}

func (m *Metrics) IncrementDecodeErrors() {
	m.decodeErrors.Add(1)
}

func (m *Metrics) IncrementDetectErrors() {
	m.detectErrors.Add(1)
}

func (m *Metrics) RecordLatency(duration time.Duration) {
	m.totalLatency.Add(duration.Milliseconds())
}

func (m *Metrics) IncrementCaptures(auto bool) {
	if auto {
		m.capturesAuto.Add(1)
	} else {
		m.capturesManual.Add(1)
	}
}

func (m *Metrics) IncrementCountdownsStarted() {
	m.countdowns.Add(1)
}

func (m *Metrics) IncrementCountdownsCancelled() {
	m.cancellations.Add(1)
}

func (m *Metrics) GetTotalFrames() int64 {
	return m.totalFrames.Load()
}

func (m *Metrics) GetAvgLatency() float64 {
	frames := m.totalFrames.Load()
	if frames == 0 {
		return 0
	}
	return float64(m.totalLatency.Load()) / float64(frames)
}

func (m *Metrics) GetLastFrameTime() int64 {
	return m.lastFrameTime.Load()
}

// IncrementWebSocketConnections increments WebSocket connection count
func (m *Metrics) IncrementWebSocketConnections() {
	m.wsConnections.Add(1)
}

// DecrementWebSocketConnections decrements WebSocket connection count
func (m *Metrics) DecrementWebSocketConnections() {
	m.wsConnections.Add(-1)
}

// IncrementWebSocketMessages increments WebSocket message count
func (m *Metrics) IncrementWebSocketMessages() {
	m.wsMessages.Add(1)
}

// IncrementWebSocketErrors increments WebSocket error count
func (m *Metrics) IncrementWebSocketErrors() {
	m.wsErrors.Add(1)
}

// Snapshot returns all counters for the /api/metrics endpoint
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"total_frames":         m.totalFrames.Load(),
		"decode_errors":        m.decodeErrors.Load(),
		"detect_errors":        m.detectErrors.Load(),
		"avg_latency_ms":       m.GetAvgLatency(),
		"captures_auto":        m.capturesAuto.Load(),
		"captures_manual":      m.capturesManual.Load(),
		"countdowns_started":   m.countdowns.Load(),
		"countdowns_cancelled": m.cancellations.Load(),
		"ws_connections":       m.wsConnections.Load(),
		"ws_messages":          m.wsMessages.Load(),
		"ws_errors":            m.wsErrors.Load(),
		"last_frame_time":      m.lastFrameTime.Load(),
	}
}
