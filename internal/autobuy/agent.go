package autobuy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Agent runs observe → decide → act cycles.
type Agent struct {
	Observer   *Observer
	Actor      *Actor
	Policy     Policy
	Memory     *CycleMemory
	MemoryPath string // "" keeps memory in process only
}

// NewAgent creates an agent against one API base URL.
func NewAgent(baseURL, adminKey string, p Policy) *Agent {
	return &Agent{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Policy:   p,
		Memory:   &CycleMemory{},
	}
}

// RunCycle executes one observe → decide → act cycle.
func (a *Agent) RunCycle(ctx context.Context) (Decision, error) {
	snap, err := a.Observer.Observe(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("observe: %w", err)
	}

	decision := Decide(snap, a.Policy)
	rec := CycleRecord{
		At:        time.Now(),
		Tick:      snap.Status.Status.Tick,
		Action:    decision.Action,
		ID:        decision.ID,
		Rationale: decision.Rationale,
	}
	slog.Info("autobuy decision", "action", decision.Action, "id", decision.ID, "rationale", decision.Rationale)

	if decision.Action == ActionBuy {
		receipt, err := a.Actor.Buy(ctx, decision.ID, decision.Mode)
		var rejected *StatusError
		switch {
		case errors.As(err, &rejected) && rejected.Code == http.StatusConflict:
			// Balances moved between observe and act.
			slog.Info("autobuy purchase no longer possible", "id", decision.ID, "reason", rejected.Body)
			rec.Action = ActionWait
			rec.Rationale = "purchase rejected: " + rejected.Body
		case err != nil:
			return decision, fmt.Errorf("buy %s: %w", decision.ID, err)
		default:
			rec.Quantity = receipt.Quantity
			rec.Cost = receipt.Cost.String()
			slog.Info("autobuy purchase", "id", receipt.ID, "quantity", receipt.Quantity, "cost", rec.Cost, "level", receipt.Level)
		}
	}

	a.Memory.Record(rec)
	a.Memory.Save(a.MemoryPath)
	return decision, nil
}

// Run repeats cycles every interval until ctx is done. Failed cycles are
// logged and retried on the next interval.
func (a *Agent) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.RunCycle(ctx); err != nil && ctx.Err() == nil {
			slog.Error("autobuy cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("autobuy stopped", "purchases", a.Memory.Purchases())
			return
		case <-ticker.C:
		}
	}
}
