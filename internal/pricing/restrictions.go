package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
)

// Subject is the item an origin check is asked about
type Subject struct {
	CustomerID             uuid.UUID
	Category               domain.MaterialCategory
	RequiredCertifications []string
}

// OriginCheck is one stage of the restriction pipeline
type OriginCheck interface {
	Name() string
	Check(subject Subject, option SupplierOption) (allowed bool, reason string)
}

// Verdict is the pipeline outcome for one origin
type Verdict struct {
	Origin  domain.OriginType
	Allowed bool
	Stage   string
	Reason  string
}

// Pipeline applies its checks in order. The first denial removes the origin.
type Pipeline struct {
	checks []OriginCheck
}

func NewPipeline(checks ...OriginCheck) *Pipeline {
	return &Pipeline{checks: checks}
}

// Evaluate returns one verdict per option, ordered by origin
func (p *Pipeline) Evaluate(subject Subject, options map[domain.OriginType]SupplierOption) []Verdict {
	origins := make([]domain.OriginType, 0, len(options))
	for origin := range options {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })

	verdicts := make([]Verdict, 0, len(origins))
	for _, origin := range origins {
		verdict := Verdict{Origin: origin, Allowed: true}
		for _, check := range p.checks {
			if ok, reason := check.Check(subject, options[origin]); !ok {
				verdict.Allowed = false
				verdict.Stage = check.Name()
				verdict.Reason = reason
				break
			}
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts
}

// Allowed evaluates options and keeps those no check denied, together with the denial reasons
func (p *Pipeline) Allowed(subject Subject, options map[domain.OriginType]SupplierOption) (map[domain.OriginType]SupplierOption, []domain.OriginType, []string, []Verdict) {
	verdicts := p.Evaluate(subject, options)
	kept := make(map[domain.OriginType]SupplierOption, len(options))
	var allowed []domain.OriginType
	var denials []string
	for _, v := range verdicts {
		if v.Allowed {
			kept[v.Origin] = options[v.Origin]
			allowed = append(allowed, v.Origin)
		} else {
			denials = append(denials, v.Reason)
		}
	}
	return kept, allowed, denials, verdicts
}

// CertificationCheck denies options missing a certification the item requires
type CertificationCheck struct{}

func (CertificationCheck) Name() string { return "certification" }

func (CertificationCheck) Check(subject Subject, option SupplierOption) (bool, string) {
	if missing, ok := option.HasCertifications(subject.RequiredCertifications); !ok {
		return false, fmt.Sprintf("%s supplier %s lacks required certification %s", option.OriginType, option.SupplierName, missing)
	}
	return true, ""
}

// RestrictionCheck denies origins named by stored restrictions of one kind
type RestrictionCheck struct {
	kind         domain.RestrictionKind
	restrictions []domain.OriginRestriction
}

func NewRestrictionCheck(kind domain.RestrictionKind, restrictions []domain.OriginRestriction) *RestrictionCheck {
	return &RestrictionCheck{kind: kind, restrictions: restrictions}
}

func (c *RestrictionCheck) Name() string { return string(c.kind) }

func (c *RestrictionCheck) Check(subject Subject, option SupplierOption) (bool, string) {
	for _, r := range c.restrictions {
		if !r.IsActive || r.Kind != c.kind {
			continue
		}
		if r.ClientID != nil && *r.ClientID != subject.CustomerID {
			continue
		}
		if r.Category != nil && *r.Category != subject.Category {
			continue
		}
		if r.OriginType != domain.OriginAny && r.OriginType != option.OriginType {
			continue
		}
		if r.Country != nil && !strings.EqualFold(*r.Country, option.Country) {
			continue
		}
		return false, fmt.Sprintf("%s excluded by %s restriction: %s", option.OriginType, c.kind, r.Reason)
	}
	return true, ""
}

// RestrictionSource lists active restrictions of a kind
type RestrictionSource interface {
	ListActive(ctx context.Context, scope repository.TenantScope, kind domain.RestrictionKind) ([]domain.OriginRestriction, error)
}

// restrictionStages is the order of the stored policy stages after the certification check
var restrictionStages = []domain.RestrictionKind{
	domain.RestrictionClient,
	domain.RestrictionRiskCategory,
	domain.RestrictionAML,
	domain.RestrictionOperator,
}

// LoadPipeline builds the tenant's pipeline: certification, client, risk category, AML, operator
func LoadPipeline(ctx context.Context, scope repository.TenantScope, source RestrictionSource) (*Pipeline, error) {
	checks := []OriginCheck{CertificationCheck{}}
	for _, kind := range restrictionStages {
		restrictions, err := source.ListActive(ctx, scope, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s restrictions: %w", kind, err)
		}
		checks = append(checks, NewRestrictionCheck(kind, restrictions))
	}
	return NewPipeline(checks...), nil
}
