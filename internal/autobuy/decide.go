package autobuy

import (
	"fmt"
	"math"
	"time"
)

// Actions a Decision can take.
const (
	ActionNone = "none"
	ActionBuy  = "buy"
	ActionWait = "wait"
)

// Policy tunes the agent.
type Policy struct {
	Focus   string        // only consider generators producing this resource; "" = any
	Mode    string        // buy mode sent with each purchase ("1", "10", "100", "max")
	MaxWait time.Duration // hold out this long for a better candidate instead of buying a worse one
}

// Decision is the outcome of one cycle's deliberation.
type Decision struct {
	Action    string     `json:"action"`
	ID        string     `json:"id,omitempty"`
	Mode      string     `json:"mode,omitempty"`
	Rationale string     `json:"rationale"`
	Candidate *Candidate `json:"-"`
}

// Decide picks the purchase with the best output gained per unit of cost.
// When the best candidate is unaffordable but close (within MaxWait of
// income), the agent saves for it rather than buying something worse.
func Decide(snap *Snapshot, p Policy) Decision {
	ranked := Rank(snap, p.Focus)
	if len(ranked) == 0 {
		return Decision{Action: ActionNone, Rationale: "no unlocked generator to buy"}
	}

	best := ranked[0]
	if best.Affordable {
		return buy(best, p, "best gain per cost")
	}
	if best.Wait <= p.MaxWait.Seconds() {
		return Decision{
			Action:    ActionWait,
			ID:        best.ID,
			Rationale: fmt.Sprintf("saving for %s, affordable in %s", best.ID, waitString(best.Wait)),
			Candidate: &best,
		}
	}
	for _, c := range ranked[1:] {
		if c.Affordable {
			return buy(c, p, fmt.Sprintf("%s is %s away", best.ID, waitString(best.Wait)))
		}
	}
	return Decision{
		Action:    ActionWait,
		ID:        best.ID,
		Rationale: fmt.Sprintf("nothing affordable; %s in %s", best.ID, waitString(best.Wait)),
		Candidate: &best,
	}
}

func buy(c Candidate, p Policy, why string) Decision {
	mode := p.Mode
	if mode == "" {
		mode = "1"
	}
	return Decision{
		Action:    ActionBuy,
		ID:        c.ID,
		Mode:      mode,
		Rationale: fmt.Sprintf("%s: +%s/s for %s %s", why, c.Gain, c.Cost, c.Resource),
		Candidate: &c,
	}
}

func waitString(secs float64) string {
	if math.IsInf(secs, 1) || secs > float64(math.MaxInt64/int64(time.Second)) {
		return "never at current income"
	}
	return time.Duration(secs * float64(time.Second)).Round(time.Second).String()
}
