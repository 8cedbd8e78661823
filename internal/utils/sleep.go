package utils

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// session fatigue state, reset every time the follow loop starts.
var (
	sessionMu    sync.RWMutex
	sessionStart time.Time
)

// SetSessionStart records the start of a new follow session. Dwell times then get a fatigue
// multiplier that rises from 1.0 to 1.25 over the first 3 hours.
func SetSessionStart() {
	sessionMu.Lock()
	sessionStart = time.Now()
	sessionMu.Unlock()
}

// ResetSession drops the fatigue multiplier back to 1.0.
func ResetSession() {
	sessionMu.Lock()
	sessionStart = time.Time{}
	sessionMu.Unlock()
}

// sessionFatigue returns a multiplier in [1.0, 1.25]. Returns 1.0 when no session has been started.
func sessionFatigue() float64 {
	sessionMu.RLock()
	start := sessionStart
	sessionMu.RUnlock()
	if start.IsZero() {
		return 1.0
	}
	f := time.Since(start).Hours() / 3.0
	if f > 1.0 {
		f = 1.0
	}
	return 1.0 + 0.25*f
}

// sampleGamma returns a sample from the Gamma(shape, scale) distribution using
// the Marsaglia-Tsang squeeze method. shape must be >= 1.
func sampleGamma(shape, scale float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rand.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		x2 := x * x
		u := rand.Float64()
		// Fast accept path
		if u < 1.0-0.0331*(x2*x2) {
			return d * v * scale
		}
		// Slow accept path
		if math.Log(u) < 0.5*x2+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

const (
	minMultiplier = 0.4
	maxMultiplier = 2.5
)

// humanMultiplier draws from Gamma(4, 0.25), mean 1.0, clamped to [0.4, 2.5].
func humanMultiplier() float64 {
	const shape = 4.0
	const scale = 0.25
	m := sampleGamma(shape, scale)
	if m < minMultiplier {
		m = minMultiplier
	}
	if m > maxMultiplier {
		m = maxMultiplier
	}
	return m
}

// Jitter returns a right skewed duration for the requested milliseconds, the non blocking
// counterpart of Sleep. The request is a floor: the result lies between it and 2.5x the request
// times the session fatigue.
func Jitter(milliseconds int) time.Duration {
	if milliseconds <= 0 {
		return 0
	}
	ms := float64(milliseconds) * max(humanMultiplier(), 1.0) * sessionFatigue()
	return time.Duration(ms) * time.Millisecond
}

// Sleep pauses for Jitter(milliseconds). Only the input layer should block like this, the tick
// loop waits through the executor delay state instead.
func Sleep(milliseconds int) {
	time.Sleep(Jitter(milliseconds))
}
