package engagement

import (
	"strings"

	"github.com/portal/backend/internal/domain/shared"
)

// Module is one named feature area of the portal
type Module string

const (
	ModuleIntel            Module = "intel"
	ModuleProtocol         Module = "protocol"
	ModuleOutputs          Module = "outputs"
	ModuleSecureChannel    Module = "secureChannel"
	ModuleContracts        Module = "contracts"
	ModuleBilling          Module = "billing"
	ModuleSettlement       Module = "settlement"
	ModuleOpsConsole       Module = "opsConsole"
	ModuleRequestBuilder   Module = "requestBuilder"
	ModuleDeliveryPipeline Module = "deliveryPipeline"
	ModuleAccessRoles      Module = "accessRoles"
)

// AllModules lists every portal module in presentation order
var AllModules = []Module{
	ModuleIntel,
	ModuleProtocol,
	ModuleOutputs,
	ModuleSecureChannel,
	ModuleContracts,
	ModuleBilling,
	ModuleSettlement,
	ModuleOpsConsole,
	ModuleRequestBuilder,
	ModuleDeliveryPipeline,
	ModuleAccessRoles,
}

// ModuleState is the resolved availability of a module for a viewer
type ModuleState string

const (
	StateActive   ModuleState = "active"
	StatePending  ModuleState = "pending"
	StateLocked   ModuleState = "locked"
	StateAction   ModuleState = "action"   // user action required (sign, pay)
	StateNotWired ModuleState = "not_wired" // backing doctype unavailable
)

// Tier is the engagement package level
type Tier string

const (
	TierIntelOnly Tier = "INTEL_ONLY"
	TierBlueprint Tier = "BLUEPRINT"
	TierCustom    Tier = "CUSTOM"
)

// tierAliases maps the alternate API variant names onto the canonical tiers
var tierAliases = map[string]Tier{
	"INTEL_ONLY": TierIntelOnly,
	"BLUEPRINT":  TierBlueprint,
	"CUSTOM":     TierCustom,
	"DIAGNOSIS":  TierIntelOnly,
	"ARCHITECT":  TierBlueprint,
	"SOVEREIGN":  TierCustom,
}

// ParseTier normalizes a tier name, accepting both naming variants
func ParseTier(s string) (Tier, error) {
	if t, ok := tierAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", shared.NewDomainError("INVALID_TIER", "Unknown engagement tier: "+s)
}

// ProjectStatus is the ERP project lifecycle status relevant to gating
type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "open"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ParseProjectStatus maps raw ERP status strings onto the gating statuses.
// Unknown statuses are treated as open so a new ERP status never bricks the
// portal navigation.
func ParseProjectStatus(s string) ProjectStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on hold", "on_hold", "paused":
		return ProjectOnHold
	case "completed", "closed":
		return ProjectCompleted
	case "cancelled", "canceled":
		return ProjectCancelled
	default:
		return ProjectOpen
	}
}

// BillingState summarizes the engagement's invoice position
type BillingState string

const (
	BillingCurrent BillingState = "current" // nothing outstanding past due
	BillingDue     BillingState = "due"     // outstanding but within terms
	BillingOverdue BillingState = "overdue" // at least one invoice past due
)
