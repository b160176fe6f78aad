package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// ImpactThresholds tier a single service's business impact. Error and
// critical bounds are strict and checked highest tier first, so raising
// either count never lowers the tier.
type ImpactThresholds struct {
	CriticalErrorsAbove   int `yaml:"critical_errors_above"`
	CriticalCriticalAbove int `yaml:"critical_critical_above"`
	HighErrorsAbove       int `yaml:"high_errors_above"`
	HighCriticalAbove     int `yaml:"high_critical_above"`
	MediumErrorsAbove     int `yaml:"medium_errors_above"`
}

// DefaultImpactThresholds returns the deployment defaults.
func DefaultImpactThresholds() ImpactThresholds {
	return ImpactThresholds{
		CriticalErrorsAbove:   5000,
		CriticalCriticalAbove: 100,
		HighErrorsAbove:       1000,
		HighCriticalAbove:     10,
		MediumErrorsAbove:     100,
	}
}

// ImpactTemplate is one narrative template from the registry. Templates
// are identified by id and bound to services through configuration, not
// code, so the registry is externally editable.
type ImpactTemplate struct {
	ID                string `yaml:"id"`
	RootCause         string `yaml:"root_cause"`
	DirectImpact      string `yaml:"direct_impact"`
	IndirectImpact    string `yaml:"indirect_impact"`
	FinancialImpact   string `yaml:"financial_impact"`
	UserTrust         string `yaml:"user_trust"`
	OperationalImpact string `yaml:"operational_impact"`
	ImmediateActions  string `yaml:"immediate_actions"`
	LongTermActions   string `yaml:"long_term_actions"`
	CommunicationPlan string `yaml:"communication_plan"`
}

// Narrator produces per-service business-impact narratives. Lookup is
// by exact service name; services without a bound template get a
// generic narrative synthesized from the aggregate data.
type Narrator struct {
	templates  map[string]ImpactTemplate
	byService  map[string]string
	thresholds ImpactThresholds
}

// NewNarrator builds a narrator from the template registry, the
// service-to-template binding, and the tier thresholds.
func NewNarrator(templates []ImpactTemplate, byService map[string]string, th ImpactThresholds) *Narrator {
	if th == (ImpactThresholds{}) {
		th = DefaultImpactThresholds()
	}
	n := &Narrator{
		templates:  make(map[string]ImpactTemplate, len(templates)),
		byService:  make(map[string]string, len(byService)),
		thresholds: th,
	}
	for _, t := range templates {
		n.templates[t.ID] = t
	}
	for svc, id := range byService {
		n.byService[svc] = id
	}
	return n
}

// Narrate builds the impact assessment for one service. entries are
// the service's own normalized entries (used to enrich the generic
// narrative); globalTotal is the pre-filter system-wide error count.
func (n *Narrator) Narrate(service string, metrics models.ServiceMetrics, entries []models.NormalizedEntry, globalTotal int) models.Impact {
	impact := models.Impact{
		Service:        service,
		TotalErrors:    metrics.TotalErrors,
		CriticalErrors: metrics.CriticalErrorCount,
		UniquePods:     metrics.UniquePods,
	}

	// Shares, guarded against zero denominators.
	if globalTotal > 0 {
		impact.ErrorSharePct = float64(metrics.TotalErrors) / float64(globalTotal) * 100
	}
	if metrics.TotalErrors > 0 {
		impact.CriticalSharePct = float64(metrics.CriticalErrorCount) / float64(metrics.TotalErrors) * 100
	}

	if len(metrics.TopMessages) > 0 {
		impact.TopMessage = metrics.TopMessages[0].Message
	}

	impact.Tier, impact.TierDescription = n.tier(metrics.TotalErrors, metrics.CriticalErrorCount)

	tmpl, id := n.lookup(service)
	if id == "" {
		tmpl = n.generic(service, metrics, entries)
	}
	impact.TemplateID = id
	impact.RootCause = tmpl.RootCause
	impact.DirectImpact = tmpl.DirectImpact
	impact.IndirectImpact = tmpl.IndirectImpact
	impact.FinancialImpact = tmpl.FinancialImpact
	impact.UserTrust = tmpl.UserTrust
	impact.OperationalImpact = tmpl.OperationalImpact
	impact.ImmediateActions = tmpl.ImmediateActions
	impact.LongTermActions = tmpl.LongTermActions
	impact.CommunicationPlan = tmpl.CommunicationPlan

	return impact
}

func (n *Narrator) tier(totalErrors, criticalErrors int) (models.ImpactTier, string) {
	th := n.thresholds
	switch {
	case totalErrors > th.CriticalErrorsAbove || criticalErrors > th.CriticalCriticalAbove:
		return models.ImpactCritical, "Business Critical - Immediate action required"
	case totalErrors > th.HighErrorsAbove || criticalErrors > th.HighCriticalAbove:
		return models.ImpactHigh, "High Impact - Urgent attention needed"
	case totalErrors > th.MediumErrorsAbove || criticalErrors > 0:
		return models.ImpactMedium, "Medium Impact - Monitor closely"
	default:
		return models.ImpactLow, "Low Impact - Standard monitoring"
	}
}

func (n *Narrator) lookup(service string) (ImpactTemplate, string) {
	id, ok := n.byService[service]
	if !ok {
		return ImpactTemplate{}, ""
	}
	tmpl, ok := n.templates[id]
	if !ok {
		return ImpactTemplate{}, ""
	}
	return tmpl, id
}

// generic synthesizes a fallback narrative from the service's own
// aggregates when no template is bound to it.
func (n *Narrator) generic(service string, metrics models.ServiceMetrics, entries []models.NormalizedEntry) ImpactTemplate {
	rootCause := fmt.Sprintf("Multiple error types detected: %s", categorySummary(metrics.CategoryHistogram))
	if len(entries) > 0 && entries[0].SourceFile != "" {
		rootCause += fmt.Sprintf(" (sample source: %s)", entries[0].SourceFile)
	}

	return ImpactTemplate{
		RootCause: rootCause,
		DirectImpact: fmt.Sprintf("Core %s features may be unavailable and users may experience "+
			"service interruptions or degraded response times.", service),
		IndirectImpact: "Users may encounter errors when using the service and lose confidence " +
			"in its reliability. Sustained error volume points at underlying issues.",
		FinancialImpact:   "Potential revenue impact from service disruptions",
		UserTrust:         "Users may lose confidence in service reliability",
		OperationalImpact: "High error volume requires investigation and resolution",
		ImmediateActions: "Investigate the root cause of the errors, check service health and " +
			"dependencies, and review recent deployments.",
		LongTermActions: "Implement circuit breakers and retry logic, set up detailed error " +
			"tracking, and add automated alerting for critical error patterns.",
		CommunicationPlan: "Communicate service status to affected users within 24 hours and " +
			"follow up with a detailed incident report within a week.",
	}
}

// categorySummary renders a histogram as "name(count)" pairs ordered by
// count descending, names ascending on ties.
func categorySummary(histogram map[string]int) string {
	names := make([]string, 0, len(histogram))
	for name := range histogram {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if histogram[names[i]] != histogram[names[j]] {
			return histogram[names[i]] > histogram[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s(%d)", name, histogram[name])
	}
	return strings.Join(parts, ", ")
}
