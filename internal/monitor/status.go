package monitor

import (
	"time"

	"github.com/hamed0406/tablewatch/internal/check"
)

type DescriptorStatus struct {
	Name  string     `json:"name"`
	Kind  check.Kind `json:"kind"`
	Table string     `json:"table"`
}

type Status struct {
	Running         bool                 `json:"running"`
	Interval        string               `json:"interval"`
	CooldownWindow  string               `json:"cooldown_window"`
	DescriptorCount int                  `json:"descriptor_count"`
	Descriptors     []DescriptorStatus   `json:"descriptors"`
	CooldownState   map[string]time.Time `json:"cooldown_state"`
}

// Status returns a point-in-time snapshot for introspection.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	ds := make([]DescriptorStatus, 0, len(m.checks))
	for _, d := range m.checks {
		ds = append(ds, DescriptorStatus{Name: d.Name, Kind: d.Kind, Table: d.Table})
	}
	return Status{
		Running:         running,
		Interval:        m.interval.String(),
		CooldownWindow:  m.cooldown.window.String(),
		DescriptorCount: len(m.checks),
		Descriptors:     ds,
		CooldownState:   m.cooldown.Snapshot(),
	}
}
