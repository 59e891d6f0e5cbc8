package economy

import (
	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// BalanceReader exposes balances to unlock conditions.
type BalanceReader interface {
	Get(id string) bignum.Number
}

// NodeReader exposes map-node state to unlock conditions.
type NodeReader interface {
	NodeUnlocked(id string) bool
}

// Gated reports whether u names a resource or map-node condition.
func Gated(u config.Unlock) bool {
	return u.Resource != "" || u.MapNode != ""
}

// Satisfied reports whether any clause of u holds. nodes may be nil.
func Satisfied(u config.Unlock, balances BalanceReader, nodes NodeReader) bool {
	if u.Default {
		return true
	}
	if u.Resource != "" && balances != nil && balances.Get(u.Resource).Gte(u.Threshold) {
		return true
	}
	if u.MapNode != "" && nodes != nil && nodes.NodeUnlocked(u.MapNode) {
		return true
	}
	return false
}
