package models

// SeverityTier is the coarse overall health classification of a run.
type SeverityTier string

const (
	SeverityCritical SeverityTier = "CRITICAL"
	SeverityWarning  SeverityTier = "WARNING"
	SeverityStable   SeverityTier = "STABLE"
)

// ServiceRank is one service with its pre-filter error total, used for
// "top N services" listings.
type ServiceRank struct {
	Service     string `json:"service"`
	TotalErrors int    `json:"total_errors"`
}

// Summary is the severity classifier's output: a tier, a one-line
// recommended action, and the headline facts the TLDR section needs.
type Summary struct {
	Tier               SeverityTier  `json:"tier"`
	Action             string        `json:"action"`
	TotalErrors        int           `json:"total_errors"`
	ServicesAffected   int           `json:"services_affected"`
	CriticalErrorCount int           `json:"critical_error_count"`
	TopCategory        string        `json:"top_category"`
	TopCategoryCount   int           `json:"top_category_count"`
	TopServices        []ServiceRank `json:"top_services"`
}

// ImpactTier is the per-service business impact classification.
type ImpactTier string

const (
	ImpactCritical ImpactTier = "CRITICAL"
	ImpactHigh     ImpactTier = "HIGH"
	ImpactMedium   ImpactTier = "MEDIUM"
	ImpactLow      ImpactTier = "LOW"
)

// Impact is the narrator's longer-form business impact assessment for
// one top service.
type Impact struct {
	Service          string     `json:"service"`
	Tier             ImpactTier `json:"tier"`
	TierDescription  string     `json:"tier_description"`
	TotalErrors      int        `json:"total_errors"`
	CriticalErrors   int        `json:"critical_errors"`
	ErrorSharePct    float64    `json:"error_share_pct"`    // of global total
	CriticalSharePct float64    `json:"critical_share_pct"` // of service errors
	UniquePods       int        `json:"unique_pods"`
	TopMessage       string     `json:"top_message"`
	TemplateID       string     `json:"template_id"`

	RootCause         string `json:"root_cause"`
	DirectImpact      string `json:"direct_impact"`
	IndirectImpact    string `json:"indirect_impact"`
	FinancialImpact   string `json:"financial_impact"`
	UserTrust         string `json:"user_trust"`
	OperationalImpact string `json:"operational_impact"`
	ImmediateActions  string `json:"immediate_actions"`
	LongTermActions   string `json:"long_term_actions"`
	CommunicationPlan string `json:"communication_plan"`
}
