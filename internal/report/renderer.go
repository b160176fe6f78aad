// Package report renders an analysis run into the markdown report
// handed to on-call engineers and leadership.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// Options carries the presentation inputs that are not part of the
// analysis result itself.
type Options struct {
	Title        string
	Organization string
	Footer       string
	Environment  string
	Categories   []models.Category
	RangeStart   time.Time
	RangeEnd     time.Time
	Query        string
	QueryLimit   int
	GeneratedAt  time.Time

	IncludeRecommendations  bool
	IncludeTechnicalDetails bool
}

// Render produces the full markdown report. All percentages are
// computed against the result's unfiltered global totals.
func Render(result models.AnalysisResult, summary models.Summary, impacts []models.Impact, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", opts.Title)
	if opts.Organization != "" {
		fmt.Fprintf(&b, "**Organization:** %s  \n", opts.Organization)
	}
	fmt.Fprintf(&b, "**Generated:** %s  \n", opts.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Environment:** %s\n\n", opts.Environment)

	writeTLDR(&b, summary)
	writeExecutiveSummary(&b, result, opts)
	writeCriticalIssues(&b, result)
	writeServiceDashboard(&b, result)
	writeCategoryAnalysis(&b, result, opts.Categories)
	writeNamespaceBreakdown(&b, result)
	writeTimeDistribution(&b, result)
	writeTopMessages(&b, result)

	if opts.IncludeRecommendations {
		writeRecommendations(&b, result)
	}

	for _, impact := range impacts {
		writeImpact(&b, impact)
	}

	if opts.IncludeTechnicalDetails {
		writeTechnicalDetails(&b, result, opts)
	}

	fmt.Fprintf(&b, "\n---\n\n%s\n", opts.Footer)
	return b.String()
}

func writeTLDR(b *strings.Builder, s models.Summary) {
	b.WriteString("## 📋 TLDR for CTO\n\n")
	fmt.Fprintf(b, "**%s %s** - %s total errors across %d services\n\n",
		tierEmoji(s.Tier), s.Tier, comma(s.TotalErrors), s.ServicesAffected)
	b.WriteString("**Key Findings:**\n")
	fmt.Fprintf(b, "- **Critical Errors:** %d (timeouts, connection failures, 5xx)\n", s.CriticalErrorCount)
	fmt.Fprintf(b, "- **Top Error Category:** %s (%s occurrences)\n", s.TopCategory, comma(s.TopCategoryCount))
	if len(s.TopServices) > 0 {
		ranked := make([]string, 0, len(s.TopServices))
		for _, r := range s.TopServices {
			ranked = append(ranked, fmt.Sprintf("%s (%s errors)", r.Service, comma(r.TotalErrors)))
		}
		fmt.Fprintf(b, "- **Most Affected Services:** %s\n", strings.Join(ranked, ", "))
	}
	fmt.Fprintf(b, "\n**Recommendation:** %s\n\n", s.Action)
	b.WriteString("**Next Steps:** Review detailed analysis below for specific service issues and remediation steps.\n\n")
}

func tierEmoji(tier models.SeverityTier) string {
	switch tier {
	case models.SeverityCritical:
		return "🔴"
	case models.SeverityWarning:
		return "🟡"
	default:
		return "🟢"
	}
}

func writeExecutiveSummary(b *strings.Builder, result models.AnalysisResult, opts Options) {
	b.WriteString("## 🚨 Executive Summary\n\n")
	fmt.Fprintf(b, "- **Total Errors:** %s\n", comma(result.TotalErrors))
	if !opts.RangeStart.IsZero() && !opts.RangeEnd.IsZero() {
		fmt.Fprintf(b, "- **Analysis Period:** %s to %s\n",
			opts.RangeStart.UTC().Format("2006-01-02 15:04"),
			opts.RangeEnd.UTC().Format("2006-01-02 15:04"))
	}
	b.WriteString("- **Data Source:** Loki\n")
	fmt.Fprintf(b, "- **Services Affected:** %d services\n", len(result.ServiceMetrics))
	fmt.Fprintf(b, "- **Namespaces Affected:** %d namespaces\n", len(result.NamespaceHistogram))
	if result.SkippedRecords > 0 {
		fmt.Fprintf(b, "- **Skipped Records:** %d malformed entries ignored\n", result.SkippedRecords)
	}
	b.WriteString("\n")
}

func writeCriticalIssues(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## 🔥 Critical Issues Requiring Immediate Attention\n\n")
	if len(result.CriticalErrors) == 0 {
		b.WriteString("No critical errors detected in this run.\n\n")
		return
	}

	b.WriteString("### Most Critical Errors (Timeouts, Connection Failures, 5xx)\n\n")
	limit := len(result.CriticalErrors)
	if limit > 10 {
		limit = 10
	}
	for i, rec := range result.CriticalErrors[:limit] {
		fmt.Fprintf(b, "%d. **%s** - %s\n", i+1, rec.Sample.App, ellipsis(rec.Sample.Message, 80))
		fmt.Fprintf(b, "   - Pod: `%s`\n", rec.Sample.Pod)
		fmt.Fprintf(b, "   - Namespace: `%s`\n", rec.Sample.Namespace)
		fmt.Fprintf(b, "   - Occurrences: %d\n", rec.Count)
		if rec.Sample.Timestamp != "" {
			fmt.Fprintf(b, "   - Time: %s\n", rec.Sample.Timestamp)
		}
		if rec.Sample.SourceFile != "" {
			fmt.Fprintf(b, "   - Source: `%s`\n", rec.Sample.SourceFile)
		}
	}
	b.WriteString("\n")
}

func writeServiceDashboard(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## 📊 Service Health Dashboard\n\n")

	for _, service := range rankServices(result) {
		metrics := result.ServiceMetrics[service]
		fmt.Fprintf(b, "### %s\n", service)
		fmt.Fprintf(b, "- **Total Errors:** %s (%.1f%% of all errors)\n",
			comma(metrics.TotalErrors), pct(metrics.TotalErrors, result.TotalErrors))
		fmt.Fprintf(b, "- **Critical Errors:** %s (%.1f%% of service errors)\n",
			comma(metrics.CriticalErrorCount), pct(metrics.CriticalErrorCount, metrics.TotalErrors))
		fmt.Fprintf(b, "- **Affected Pods:** %d\n", metrics.UniquePods)
		if len(metrics.Namespaces) > 0 {
			fmt.Fprintf(b, "- **Namespaces:** %s\n", strings.Join(metrics.Namespaces, ", "))
		}
		if types := topCategories(metrics.CategoryHistogram, 3); types != "" {
			fmt.Fprintf(b, "- **Error Types:** %s\n", types)
		}
		if len(metrics.TopMessages) > 0 {
			top := metrics.TopMessages[0]
			fmt.Fprintf(b, "- **Top Error:** %s (%d times)\n", ellipsis(top.Message, 60), top.Count)
		}
		b.WriteString("\n")
	}
}

func writeCategoryAnalysis(b *strings.Builder, result models.AnalysisResult, categories []models.Category) {
	b.WriteString("## 🏷️ Error Categories Analysis\n\n")
	for _, cat := range categories {
		count := result.CategoryHistogram[cat.Name]
		if count == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n", cat.Name)
		fmt.Fprintf(b, "- **Count:** %s (%.1f%%)\n", comma(count), pct(count, result.TotalErrors))
		fmt.Fprintf(b, "- **Keywords:** %s\n\n", strings.Join(cat.Keywords, ", "))
	}
	if count := result.CategoryHistogram[models.CategoryOther]; count > 0 {
		fmt.Fprintf(b, "### %s\n", models.CategoryOther)
		fmt.Fprintf(b, "- **Count:** %s (%.1f%%)\n\n", comma(count), pct(count, result.TotalErrors))
	}
}

func writeNamespaceBreakdown(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## 🌍 Namespace Breakdown\n\n")
	for _, ns := range sortedKeysByCount(result.NamespaceHistogram) {
		count := result.NamespaceHistogram[ns]
		fmt.Fprintf(b, "- **%s:** %s errors (%.1f%%)\n", ns, comma(count), pct(count, result.TotalErrors))
	}
	b.WriteString("\n")
}

func writeTimeDistribution(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## ⏰ Time Distribution\n\n")
	hours := make([]int, 0, len(result.HourHistogram))
	for h := range result.HourHistogram {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		count := result.HourHistogram[h]
		fmt.Fprintf(b, "- **%02d:00:** %s errors (%.1f%%)\n", h, comma(count), pct(count, result.TotalErrors))
	}
	b.WriteString("\n")
}

func writeTopMessages(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## 🎯 Top Error Messages Across All Services\n\n")
	for i, mc := range result.TopMessages {
		fmt.Fprintf(b, "%d. **%s** (%d occurrences)\n", i+1, ellipsis(mc.Message, 100), mc.Count)
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, result models.AnalysisResult) {
	b.WriteString("## 🛠️ Actionable Recommendations\n\n")

	var highErrorServices, criticalServices []string
	for _, service := range rankServices(result) {
		metrics := result.ServiceMetrics[service]
		// A service above 10% of the global total is a hotspot.
		if float64(metrics.TotalErrors) > float64(result.TotalErrors)*0.1 {
			highErrorServices = append(highErrorServices, service)
		}
		if metrics.CriticalErrorCount > 0 {
			criticalServices = append(criticalServices, service)
		}
	}

	if len(highErrorServices) > 0 {
		b.WriteString("### 🚨 Immediate Actions Required\n")
		fmt.Fprintf(b, "- **High Error Rate Services:** %s\n", strings.Join(highErrorServices, ", "))
		b.WriteString("- Investigate these services immediately for potential outages or performance issues\n")
		b.WriteString("- Check service health endpoints and resource utilization\n")
		b.WriteString("- Review recent deployments for these services\n\n")
	}

	if len(criticalServices) > 0 {
		b.WriteString("### ⚡ Critical Error Services\n")
		fmt.Fprintf(b, "- **Services with Critical Errors:** %s\n", strings.Join(criticalServices, ", "))
		b.WriteString("- These services have timeouts, connection failures, or 5xx errors\n")
		b.WriteString("- Check network connectivity, database connections, and external service dependencies\n")
		b.WriteString("- Review timeout configurations and retry policies\n\n")
	}

	b.WriteString("### 📈 Long-term Improvements\n")
	b.WriteString("- Implement structured logging with correlation IDs for better error tracking\n")
	b.WriteString("- Set up automated alerting for critical error patterns\n")
	b.WriteString("- Create runbooks for common error scenarios\n")
	b.WriteString("- Implement circuit breakers for external service calls\n")
	b.WriteString("- Regular error analysis and trend monitoring\n\n")
}

func writeImpact(b *strings.Builder, impact models.Impact) {
	fmt.Fprintf(b, "## 🚨 End User Impact Analysis: %s\n\n", impact.Service)

	b.WriteString("### 📊 Scale of Impact\n")
	fmt.Fprintf(b, "- **Total Errors:** %s (%.1f%% of all system errors)\n",
		comma(impact.TotalErrors), impact.ErrorSharePct)
	fmt.Fprintf(b, "- **Critical Errors:** %d (%.1f%% of service errors)\n",
		impact.CriticalErrors, impact.CriticalSharePct)
	fmt.Fprintf(b, "- **Affected Pods:** %d pods\n\n", impact.UniquePods)

	b.WriteString("### 🔍 Root Cause Analysis\n")
	if impact.TopMessage != "" {
		fmt.Fprintf(b, "**Primary Error:** %s\n\n", ellipsis(impact.TopMessage, 120))
	}
	fmt.Fprintf(b, "%s\n\n", impact.RootCause)

	b.WriteString("### 💰 Business Impact Assessment\n\n")
	fmt.Fprintf(b, "#### Direct User Impact\n%s\n\n", impact.DirectImpact)
	fmt.Fprintf(b, "#### Indirect User Impact\n%s\n\n", impact.IndirectImpact)

	b.WriteString("### 🎯 Severity Classification\n\n")
	fmt.Fprintf(b, "**%s** - %s\n", impact.Tier, impact.TierDescription)
	fmt.Fprintf(b, "- **Financial Impact:** %s\n", impact.FinancialImpact)
	fmt.Fprintf(b, "- **User Trust:** %s\n", impact.UserTrust)
	fmt.Fprintf(b, "- **Operational Impact:** %s\n\n", impact.OperationalImpact)

	fmt.Fprintf(b, "### ⚡ Immediate Actions Required\n%s\n\n", impact.ImmediateActions)
	fmt.Fprintf(b, "### 📈 Long-term Recommendations\n%s\n\n", impact.LongTermActions)
	fmt.Fprintf(b, "### 💬 User Communication Strategy\n%s\n\n", impact.CommunicationPlan)
}

func writeTechnicalDetails(b *strings.Builder, result models.AnalysisResult, opts Options) {
	b.WriteString("## 🔧 Technical Details\n\n")
	if opts.Query != "" {
		fmt.Fprintf(b, "- **Query:** `%s`\n", opts.Query)
	}
	if opts.QueryLimit > 0 {
		fmt.Fprintf(b, "- **Limit:** %s entries\n", comma(opts.QueryLimit))
	}
	fmt.Fprintf(b, "- **Entries Analyzed:** %s\n", comma(result.TotalErrors))
	b.WriteString("- **Output Format:** markdown\n\n")
}

// rankServices orders post-filter services by error count descending,
// ties broken by first appearance in the input stream.
func rankServices(result models.AnalysisResult) []string {
	order := make(map[string]int, len(result.ServiceOrder))
	for i, s := range result.ServiceOrder {
		order[s] = i
	}

	services := make([]string, 0, len(result.ServiceMetrics))
	for s := range result.ServiceMetrics {
		services = append(services, s)
	}
	sort.Slice(services, func(i, j int) bool {
		a, b := result.ServiceMetrics[services[i]], result.ServiceMetrics[services[j]]
		if a.TotalErrors != b.TotalErrors {
			return a.TotalErrors > b.TotalErrors
		}
		return order[services[i]] < order[services[j]]
	})
	return services
}

// sortedKeysByCount orders map keys by count descending, ties by name.
func sortedKeysByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func topCategories(histogram map[string]int, n int) string {
	keys := sortedKeysByCount(histogram)
	if len(keys) > n {
		keys = keys[:n]
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s(%d)", k, histogram[k]))
	}
	return strings.Join(parts, ", ")
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func ellipsis(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// comma renders n with thousands separators.
func comma(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
