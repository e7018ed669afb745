package engagement

// ViewerRole is the portal role the states are resolved for. Operators get
// the ops console; clients never do.
type ViewerRole string

const (
	ViewerClient   ViewerRole = "CLIENT"
	ViewerOperator ViewerRole = "OPERATOR"
)

// tierDefaults is the baseline state of each module per tier, before any
// status or gate pass runs. Modules missing from a tier's row are locked.
var tierDefaults = map[Tier]map[Module]ModuleState{
	TierIntelOnly: {
		ModuleIntel:          StateActive,
		ModuleOutputs:        StateActive,
		ModuleContracts:      StateActive,
		ModuleBilling:        StateActive,
		ModuleSettlement:     StateActive,
		ModuleAccessRoles:    StateActive,
		ModuleRequestBuilder: StateLocked,
		ModuleProtocol:       StateLocked,
	},
	TierBlueprint: {
		ModuleIntel:            StateActive,
		ModuleProtocol:         StateActive,
		ModuleOutputs:          StateActive,
		ModuleContracts:        StateActive,
		ModuleBilling:          StateActive,
		ModuleSettlement:       StateActive,
		ModuleAccessRoles:      StateActive,
		ModuleRequestBuilder:   StateActive,
		ModuleDeliveryPipeline: StateActive,
	},
	TierCustom: {
		ModuleIntel:            StateActive,
		ModuleProtocol:         StateActive,
		ModuleOutputs:          StateActive,
		ModuleSecureChannel:    StateActive,
		ModuleContracts:        StateActive,
		ModuleBilling:          StateActive,
		ModuleSettlement:       StateActive,
		ModuleAccessRoles:      StateActive,
		ModuleRequestBuilder:   StateActive,
		ModuleDeliveryPipeline: StateActive,
	},
}

// Resolve computes the state of every module for one viewer from a snapshot.
//
// Passes run in a fixed order and later passes only ever tighten a state,
// never loosen it:
//
//  1. wiring: a module with an unreachable backing doctype is not_wired and
//     is exempt from every later pass
//  2. tier defaults: the baseline table above, plus opsConsole for operators
//  3. status gate: the project lifecycle status locks or demotes modules
//  4. billing/NDA gate: overdue invoices and an unsigned NDA surface as
//     action on the responsible module and restrict dependent ones
func Resolve(snap Snapshot, viewer ViewerRole) ModuleStates {
	states := make(ModuleStates, len(AllModules))

	defaults := tierDefaults[snap.Tier]

	for _, m := range AllModules {
		if !snap.IsWired(m) {
			states[m] = StateNotWired
			continue
		}
		if st, ok := defaults[m]; ok {
			states[m] = st
		} else {
			states[m] = StateLocked
		}
	}

	// opsConsole is role-gated, not tier-gated
	if snap.IsWired(ModuleOpsConsole) {
		if viewer == ViewerOperator {
			states[ModuleOpsConsole] = StateActive
		} else {
			states[ModuleOpsConsole] = StateLocked
		}
	}

	applyStatusGate(states, snap.ProjectStatus)
	applyBillingGate(states, snap)

	return states
}

// statusGate rules:
//   - cancelled locks everything except billing and contracts, which stay
//     readable so the record of the engagement survives
//   - completed locks the forward-motion modules; intel and outputs stay
//     active as the delivered artifact set
//   - on_hold demotes active delivery modules to pending
func applyStatusGate(states ModuleStates, status ProjectStatus) {
	switch status {
	case ProjectCancelled:
		for _, m := range AllModules {
			if m == ModuleBilling || m == ModuleContracts {
				continue
			}
			set(states, m, StateLocked)
		}
	case ProjectCompleted:
		for _, m := range []Module{ModuleRequestBuilder, ModuleDeliveryPipeline, ModuleProtocol, ModuleSecureChannel} {
			set(states, m, StateLocked)
		}
	case ProjectOnHold:
		for _, m := range []Module{ModuleProtocol, ModuleOutputs, ModuleRequestBuilder, ModuleDeliveryPipeline, ModuleSecureChannel} {
			if states[m] == StateActive {
				states[m] = StatePending
			}
		}
	}
}

// billing/NDA gate rules:
//   - an overdue invoice turns billing into action and locks the outbound
//     delivery surface until settled
//   - an unsigned NDA turns contracts into action and holds back the
//     modules that would expose work product
func applyBillingGate(states ModuleStates, snap Snapshot) {
	if snap.BillingState == BillingOverdue {
		set(states, ModuleBilling, StateAction)
		for _, m := range []Module{ModuleOutputs, ModuleDeliveryPipeline, ModuleSecureChannel} {
			set(states, m, StateLocked)
		}
	}

	if !snap.NDASigned {
		set(states, ModuleContracts, StateAction)
		for _, m := range []Module{ModuleSecureChannel, ModuleOutputs} {
			if states[m] == StateActive {
				states[m] = StatePending
			}
		}
	}
}

// set assigns a state unless the module is not_wired, which always wins
func set(states ModuleStates, m Module, st ModuleState) {
	if states[m] == StateNotWired {
		return
	}
	states[m] = st
}
