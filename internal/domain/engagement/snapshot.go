package engagement

import "time"

// Snapshot collects everything the resolver needs about one engagement at a
// point in time. It is assembled by the application layer from ERP reads and
// the wiring probe; the resolver itself never performs I/O.
type Snapshot struct {
	EngagementID  string
	ClientID      string
	Name          string
	Tier          Tier
	ProjectStatus ProjectStatus

	// Gate inputs
	NDASigned      bool
	ContractSigned bool
	BillingState   BillingState

	// Wiring reports per-module backend availability. A module absent from
	// the map is considered wired; only explicit false marks a broken
	// backing doctype.
	Wiring map[Module]bool

	FetchedAt time.Time
}

// IsWired reports whether the module's backing doctype is reachable
func (s Snapshot) IsWired(m Module) bool {
	if s.Wiring == nil {
		return true
	}
	wired, ok := s.Wiring[m]
	if !ok {
		return true
	}
	return wired
}

// ModuleStates is the resolved state of every module for one viewer
type ModuleStates map[Module]ModuleState
