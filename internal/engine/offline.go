package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/talgya/idle-economy/internal/bignum"
)

// OfflineReport summarises a catch-up step.
type OfflineReport struct {
	Elapsed   float64                  `json:"elapsed_seconds"`
	Effective float64                  `json:"effective_seconds"`
	Credited  map[string]bignum.Number `json:"credited"`
	Events    []Event                  `json:"events,omitempty"`
}

// EffectiveSeconds is min(elapsed, maxHours·3600) × efficiency, with
// efficiency clamped to [0, 1] and negative inputs read as zero.
func EffectiveSeconds(elapsed, maxHours, efficiency float64) float64 {
	if elapsed <= 0 || maxHours <= 0 || efficiency <= 0 || math.IsNaN(elapsed) {
		return 0
	}
	return math.Min(elapsed, maxHours*3600) * math.Min(efficiency, 1)
}

// ApplyOffline credits one lump of production for a gap of elapsed seconds
// at the current rates. Purchases are not replayed. The active event's
// timer runs for the full gap but no new event is rolled.
func (s *Simulation) ApplyOffline(elapsed float64) OfflineReport {
	bal := s.Config.Balance
	report := OfflineReport{
		Elapsed:   math.Max(elapsed, 0),
		Effective: EffectiveSeconds(elapsed, bal.MaxOfflineHours, bal.OfflineEfficiency),
		Credited:  map[string]bignum.Number{},
	}
	if report.Effective <= 0 {
		return report
	}

	report.Credited = s.produce(report.Effective)
	events := s.advanceEvent(report.Elapsed, false)

	meta := map[string]any{
		"elapsed":   report.Elapsed,
		"effective": report.Effective,
	}
	for id, n := range report.Credited {
		meta[id] = n.String()
	}
	away := time.Duration(report.Elapsed * float64(time.Second))
	events = append(events, s.newEvent(KindOfflineProgress, "",
		fmt.Sprintf("Away for %s, credited %.0f seconds of production", away.Round(time.Second), report.Effective),
		meta))
	events = append(events, s.evaluatePrestige(false)...)
	s.record(events)
	report.Events = events

	slog.Info("offline catch-up applied",
		"elapsed", away.Round(time.Second).String(),
		"effective_seconds", report.Effective,
		"resources", len(report.Credited),
	)
	return report
}

// Resume applies catch-up for the gap between the last tick and now, then
// marks now as the last tick time. A simulation that has never ticked has
// no gap.
func (s *Simulation) Resume(now time.Time) OfflineReport {
	var elapsed float64
	if !s.LastTickAt.IsZero() {
		elapsed = now.Sub(s.LastTickAt).Seconds()
	}
	report := s.ApplyOffline(elapsed)
	s.LastTickAt = now
	return report
}
