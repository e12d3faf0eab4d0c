package engine

import (
	"time"
)

// TimerConfig controls the per-lot rolling countdown.
type TimerConfig struct {
	// TimerSeconds is the countdown length, reset on every accepted bid.
	TimerSeconds int
	// AntiSnipeWindow is the tail of the countdown in which an accepted bid
	// triggers a grace extension.
	AntiSnipeWindow time.Duration
	// ExtensionGrace is the fixed period the deadline extends by.
	ExtensionGrace time.Duration
	// MaxExtensions caps anti-snipe extensions per lot so a lot cannot be
	// stalled indefinitely.
	MaxExtensions int
}

func (c TimerConfig) window() time.Duration {
	return time.Duration(c.TimerSeconds) * time.Second
}

// lotTimer is the pure countdown state for one lot. The deadline is always a
// function of the last accepted bid time, never a stored instant that can
// drift: the admission path and the scheduler tick evaluate the same inputs
// and reach the same decision for the same clock read.
type lotTimer struct {
	lastBidTime   time.Time
	graceApplied  bool
	extendedCount int
}

func (t *lotTimer) deadline(cfg TimerConfig) time.Time {
	d := t.lastBidTime.Add(cfg.window())
	if t.graceApplied {
		d = d.Add(cfg.ExtensionGrace)
	}
	return d
}

func (t *lotTimer) remaining(cfg TimerConfig, now time.Time) time.Duration {
	return t.deadline(cfg).Sub(now)
}

func (t *lotTimer) expired(cfg TimerConfig, now time.Time) bool {
	return !now.Before(t.deadline(cfg))
}

// reset restarts the countdown for an accepted bid at the given instant and
// reports whether the bid triggered an anti-snipe extension: it arrived inside
// the final AntiSnipeWindow and the extension cap is not yet exhausted.
func (t *lotTimer) reset(cfg TimerConfig, now time.Time) bool {
	snipe := t.remaining(cfg, now) <= cfg.AntiSnipeWindow &&
		t.extendedCount < cfg.MaxExtensions
	t.lastBidTime = now
	t.graceApplied = snipe
	if snipe {
		t.extendedCount++
	}
	return snipe
}

// start arms the countdown at lot activation.
func (t *lotTimer) start(now time.Time) {
	t.lastBidTime = now
	t.graceApplied = false
}
