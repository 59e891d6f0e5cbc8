package autobuy

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

const maxRecords = 50

// CycleRecord captures what happened in a single agent cycle.
type CycleRecord struct {
	At        time.Time `json:"at"`
	Tick      uint64    `json:"tick"`
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Cost      string    `json:"cost,omitempty"`
	Rationale string    `json:"rationale,omitempty"`
}

// CycleMemory keeps a ring of recent cycle records, optionally on disk.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file. Returns empty memory if path is empty,
// missing or unreadable.
func LoadMemory(path string) *CycleMemory {
	if path == "" {
		return &CycleMemory{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("autobuy memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to path. An empty path keeps it in memory only.
func (m *CycleMemory) Save(path string) {
	if path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal autobuy memory", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("failed to write autobuy memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Purchases counts recorded buys per generator.
func (m *CycleMemory) Purchases() map[string]int {
	out := map[string]int{}
	for _, r := range m.Records {
		if r.Action == ActionBuy {
			out[r.ID] += r.Quantity
		}
	}
	return out
}
