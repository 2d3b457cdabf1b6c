// Package intel holds the municipality resolver and the three domain lookups
// (growth prediction, service status, security status) the model can ask for.
package intel

import (
	"context"
	"fmt"
	"math"
	"strconv"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// GrowthResult is the classifier label for a resolved municipality.
type GrowthResult struct {
	Municipality string
	Label        string
}

func (g GrowthResult) Summary() string {
	return fmt.Sprintf("Negocio %s en %s", g.Label, g.Municipality)
}

// ServiceStatus is the service-shortage row for a municipality, if any.
type ServiceStatus struct {
	Municipality  string
	Found         bool
	Category      string
	ShortageIndex float64
}

func (s ServiceStatus) Summary() string {
	return fmt.Sprintf("Situación: %s - Desabasto: %s", s.Category, formatIndex(s.ShortageIndex))
}

// SecurityStatus is the security row for a municipality, if any.
type SecurityStatus struct {
	Municipality       string
	Found              bool
	Category           string
	IsolatedBusinesses int
}

func (s SecurityStatus) Summary() string {
	return fmt.Sprintf("Riesgo: %s - Aislados: %d", s.Category, s.IsolatedBusinesses)
}

type Service struct {
	resolver   *Resolver
	services   *Table[ServiceRow]
	security   *Table[SecurityRow]
	classifier Classifier
}

func NewService(services *Table[ServiceRow], security *Table[SecurityRow], classifier Classifier, threshold int) *Service {
	if services == nil {
		services = NewTable[ServiceRow](nil, nil)
	}
	if security == nil {
		security = NewTable[SecurityRow](nil, nil)
	}
	return &Service{
		resolver:   NewResolver(services.Names(), security.Names(), threshold),
		services:   services,
		security:   security,
		classifier: classifier,
	}
}

func (s *Service) Resolve(raw string, pillar Pillar) string {
	return s.resolver.Resolve(raw, pillar)
}

// Growth resolves the municipality against the service names and asks the
// classifier for a label.
func (s *Service) Growth(ctx context.Context, f GrowthFeatures) (GrowthResult, error) {
	f.Municipality = s.resolver.Resolve(f.Municipality, PillarServices)
	if s.classifier == nil {
		return GrowthResult{Municipality: f.Municipality}, fmt.Errorf("growth classifier not configured")
	}
	label, err := s.classifier.Predict(ctx, f)
	if err != nil {
		logx.Error().Err(err).Str("municipality", f.Municipality).Msg("growth prediction failed")
		return GrowthResult{Municipality: f.Municipality}, err
	}
	return GrowthResult{Municipality: f.Municipality, Label: label}, nil
}

func (s *Service) ServiceStatus(raw string) ServiceStatus {
	name := s.resolver.Resolve(raw, PillarServices)
	row, ok := s.services.Get(name)
	if !ok {
		return ServiceStatus{Municipality: name}
	}
	return ServiceStatus{Municipality: name, Found: true, Category: row.Category, ShortageIndex: row.ShortageIndex}
}

func (s *Service) SecurityStatus(raw string) SecurityStatus {
	name := s.resolver.Resolve(raw, PillarSecurity)
	row, ok := s.security.Get(name)
	if !ok {
		return SecurityStatus{Municipality: name}
	}
	return SecurityStatus{Municipality: name, Found: true, Category: row.Category, IsolatedBusinesses: row.IsolatedBusinesses}
}

// formatIndex prints whole numbers with one decimal ("7.0") and keeps the
// shortest exact form otherwise ("6.25").
func formatIndex(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
