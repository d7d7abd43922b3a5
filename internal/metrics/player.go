// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes Prometheus instrumentation for the billboard
// player daemon: fetch, cache, playlist-swap, and player-process counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_fetch_attempts_total",
		Help: "Batch fetch attempts against the billboard API by outcome.",
	}, []string{"outcome"})

	fetchCursorWraps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_fetch_cursor_wraps_total",
		Help: "Number of times the fetch cursor wrapped back to the start of the catalog.",
	}, []string{})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_cache_hits_total",
		Help: "Asset cache lookups resolved without a network download.",
	}, []string{})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_cache_misses_total",
		Help: "Asset cache lookups requiring a network download.",
	}, []string{})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_cache_evictions_total",
		Help: "Asset cache entries evicted to stay under the size cap.",
	}, []string{})

	cacheBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "player_cache_bytes",
		Help: "Current total size of the asset cache directory in bytes.",
	}, []string{})

	playlistSwaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_playlist_swaps_total",
		Help: "Pending playlist promotions to main playlist, by outcome.",
	}, []string{"outcome"})

	playerRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_process_restarts_total",
		Help: "Media player subprocess restarts, by reason.",
	}, []string{"reason"})

	playerUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "player_process_up",
		Help: "1 if the media player subprocess is currently running, else 0.",
	}, []string{})

	procTerminate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_proc_terminate_total",
		Help: "Signals sent to the media player process group during shutdown, by signal and outcome.",
	}, []string{"signal", "outcome"})

	procWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_proc_wait_total",
		Help: "Outcomes observed while waiting for the media player process group to exit.",
	}, []string{"outcome"})
)

// RecordFetchAttempt records the outcome of a single batch fetch call.
func RecordFetchAttempt(outcome string) {
	fetchAttempts.WithLabelValues(outcome).Inc()
}

// RecordCursorWrap increments the fetch cursor wrap counter.
func RecordCursorWrap() {
	fetchCursorWraps.WithLabelValues().Inc()
}

// RecordCacheHit increments the asset cache hit counter.
func RecordCacheHit() {
	cacheHits.WithLabelValues().Inc()
}

// RecordCacheMiss increments the asset cache miss counter.
func RecordCacheMiss() {
	cacheMisses.WithLabelValues().Inc()
}

// RecordCacheEviction increments the asset cache eviction counter.
func RecordCacheEviction() {
	cacheEvictions.WithLabelValues().Inc()
}

// SetCacheBytes reports the current total size of the asset cache.
func SetCacheBytes(n int64) {
	cacheBytes.WithLabelValues().Set(float64(n))
}

// RecordPlaylistSwap records the outcome of a pending-to-main playlist swap.
func RecordPlaylistSwap(outcome string) {
	playlistSwaps.WithLabelValues(outcome).Inc()
}

// RecordPlayerRestart records a media player subprocess restart and its reason.
func RecordPlayerRestart(reason string) {
	playerRestarts.WithLabelValues(reason).Inc()
}

// SetPlayerUp reports whether the media player subprocess is currently running.
func SetPlayerUp(up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	playerUp.WithLabelValues().Set(v)
}

// IncProcTerminate records a termination signal sent to the player process group.
func IncProcTerminate(signal, outcome string) {
	procTerminate.WithLabelValues(signal, outcome).Inc()
}

// IncProcWait records the outcome of waiting for the player process group to exit.
func IncProcWait(outcome string) {
	procWait.WithLabelValues(outcome).Inc()
}
