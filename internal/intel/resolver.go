package intel

import (
	"strings"

	"github.com/maleon-core-poc/server/internal/textmatch"
)

// Pillar names one of the analysis areas a lookup feeds.
type Pillar string

const (
	PillarSecurity Pillar = "seguridad"
	PillarServices Pillar = "servicios"
	PillarGrowth   Pillar = "crecimiento"
)

// Pillars lists every pillar in report order.
var Pillars = []Pillar{PillarSecurity, PillarServices, PillarGrowth}

const DefaultResolveThreshold = 70

// Resolver maps a user-typed municipality ("hoocaba") onto a canonical
// reference name ("Hocabá").
type Resolver struct {
	services  []string
	security  []string
	threshold int
}

func NewResolver(services, security []string, threshold int) *Resolver {
	if threshold <= 0 {
		threshold = DefaultResolveThreshold
	}
	return &Resolver{services: services, security: security, threshold: threshold}
}

// Resolve returns the best canonical name for raw from the pillar's
// reference set when it scores above the threshold. Otherwise raw comes back
// unchanged and the table lookup downstream reports "no data".
func (r *Resolver) Resolve(raw string, pillar Pillar) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	names := r.services
	if pillar == PillarSecurity {
		names = r.security
	}
	best, score, ok := textmatch.BestMatch(raw, names)
	if !ok || score <= r.threshold {
		return raw
	}
	return best
}
