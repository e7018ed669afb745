package erp

import (
	"context"
	"sync"
	"time"

	"github.com/portal/backend/internal/domain/engagement"
)

// moduleDoctypes maps each portal module to the doctype that backs it.
// Modules absent here have no ERP dependency and are always wired.
var moduleDoctypes = map[engagement.Module]string{
	engagement.ModuleIntel:            DoctypeProject,
	engagement.ModuleProtocol:         DoctypeProject,
	engagement.ModuleOutputs:          DoctypeDeliverable,
	engagement.ModuleContracts:        DoctypeContract,
	engagement.ModuleBilling:          DoctypeSalesInvoice,
	engagement.ModuleSettlement:       DoctypeSalesInvoice,
	engagement.ModuleRequestBuilder:   DoctypeClientRequest,
	engagement.ModuleDeliveryPipeline: DoctypeDeliverable,
}

// WiringProber resolves per-module backend availability by probing the ERP
// for the doctypes behind each module. Probe results are cached so a page
// load does not fan out into upstream requests.
type WiringProber struct {
	client Client
	ttl    time.Duration

	mu       sync.Mutex
	cache    map[string]bool
	cachedAt time.Time
}

// NewWiringProber creates a prober over the given client
func NewWiringProber(client Client, ttl time.Duration) *WiringProber {
	return &WiringProber{
		client: client,
		ttl:    ttl,
		cache:  make(map[string]bool),
	}
}

// ModuleWiring returns the wiring map for the resolver. A doctype probe
// failure marks every module backed by that doctype as unwired; probe errors
// (upstream down, auth broken) are treated the same way so the portal shows
// not_wired rather than failing the whole page.
func (p *WiringProber) ModuleWiring(ctx context.Context) map[engagement.Module]bool {
	probes := p.probeAll(ctx)

	wiring := make(map[engagement.Module]bool, len(moduleDoctypes))
	for module, doctype := range moduleDoctypes {
		wiring[module] = probes[doctype]
	}
	return wiring
}

func (p *WiringProber) probeAll(ctx context.Context) map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.cachedAt) < p.ttl && len(p.cache) > 0 {
		return p.cache
	}

	doctypes := map[string]struct{}{}
	for _, dt := range moduleDoctypes {
		doctypes[dt] = struct{}{}
	}

	results := make(map[string]bool, len(doctypes))
	for dt := range doctypes {
		wired, err := p.client.ProbeDoctype(ctx, dt)
		results[dt] = err == nil && wired
	}

	p.cache = results
	p.cachedAt = time.Now()
	return results
}

// Invalidate drops the cached probe results
func (p *WiringProber) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]bool)
	p.cachedAt = time.Time{}
}
