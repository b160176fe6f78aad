package analysis

import (
	"sort"
	"time"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// counted tracks an occurrence count together with the index of the
// first occurrence in the input stream. All top-N projections sort by
// count descending with firstSeen as the tie-break, so recomputing
// them from the same input is deterministic.
type counted struct {
	count     int
	firstSeen int
}

type serviceAccum struct {
	totalErrors int
	pods        map[string]struct{}
	namespaces  map[string]struct{}
	categories  map[string]int
	messages    map[string]*counted
	critical    int
}

type criticalAccum struct {
	sample    models.NormalizedEntry
	category  string
	count     int
	firstSeen int
}

// aggregation holds all per-run accumulators. One is built per call to
// Engine.Analyze and discarded with the run; nothing here is shared
// across runs.
type aggregation struct {
	total        int
	services     map[string]*serviceAccum
	serviceOrder []string
	categories   map[string]int
	hours        map[int]int
	messages     map[string]*counted
	critical     map[string]*criticalAccum
	namespaces   map[string]int
}

func newAggregation() *aggregation {
	return &aggregation{
		services:   make(map[string]*serviceAccum),
		categories: make(map[string]int),
		hours:      make(map[int]int),
		messages:   make(map[string]*counted),
		critical:   make(map[string]*criticalAccum),
		namespaces: make(map[string]int),
	}
}

// add folds one normalized entry into the run's accumulators. idx is
// the entry's position in the input stream.
func (a *aggregation) add(entry models.NormalizedEntry, idx int, category string, critical bool, criticalPrefixLen int) {
	a.total++
	a.categories[category]++
	a.namespaces[entry.Namespace]++

	if hour, ok := entryHour(entry.Timestamp); ok {
		a.hours[hour]++
	}

	svc, ok := a.services[entry.App]
	if !ok {
		svc = &serviceAccum{
			pods:       make(map[string]struct{}),
			namespaces: make(map[string]struct{}),
			categories: make(map[string]int),
			messages:   make(map[string]*counted),
		}
		a.services[entry.App] = svc
		a.serviceOrder = append(a.serviceOrder, entry.App)
	}

	svc.totalErrors++
	svc.pods[entry.Pod] = struct{}{}
	svc.namespaces[entry.Namespace] = struct{}{}
	svc.categories[category]++

	if entry.Message != "" {
		bump(svc.messages, entry.Message, idx)
		bump(a.messages, entry.Message, idx)
	}

	if critical {
		svc.critical++
		key := truncate(entry.Message, criticalPrefixLen)
		grp, ok := a.critical[key]
		if !ok {
			grp = &criticalAccum{sample: entry, category: category, firstSeen: idx}
			a.critical[key] = grp
		}
		grp.count++
	}
}

func bump(m map[string]*counted, key string, idx int) {
	c, ok := m[key]
	if !ok {
		c = &counted{firstSeen: idx}
		m[key] = c
	}
	c.count++
}

// result converts the accumulators into an unfiltered AnalysisResult.
// TopMessages and CriticalErrors come back complete and sorted; the
// frequency filter applies thresholds and caps afterwards.
func (a *aggregation) result(limits Limits) models.AnalysisResult {
	res := models.AnalysisResult{
		TotalErrors:        a.total,
		CategoryHistogram:  a.categories,
		ServiceMetrics:     make(map[string]models.ServiceMetrics, len(a.services)),
		HourHistogram:      a.hours,
		TopMessages:        sortMessages(a.messages, 0),
		CriticalErrors:     sortCritical(a.critical),
		NamespaceHistogram: a.namespaces,
		ServiceOrder:       append([]string(nil), a.serviceOrder...),
	}

	for name, svc := range a.services {
		namespaces := make([]string, 0, len(svc.namespaces))
		for ns := range svc.namespaces {
			namespaces = append(namespaces, ns)
		}
		sort.Strings(namespaces)

		res.ServiceMetrics[name] = models.ServiceMetrics{
			TotalErrors:        svc.totalErrors,
			UniquePods:         len(svc.pods),
			Namespaces:         namespaces,
			CategoryHistogram:  svc.categories,
			TopMessages:        sortMessages(svc.messages, limits.TopMessagesPerService),
			CriticalErrorCount: svc.critical,
		}
		res.CriticalErrorTotal += svc.critical
	}

	return res
}

// sortMessages flattens a message-frequency table into a slice ordered
// by count descending, first occurrence ascending. limit 0 keeps all.
func sortMessages(m map[string]*counted, limit int) []models.MessageCount {
	type entry struct {
		message string
		counted *counted
	}

	flat := make([]entry, 0, len(m))
	for msg, c := range m {
		flat = append(flat, entry{message: msg, counted: c})
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].counted.count != flat[j].counted.count {
			return flat[i].counted.count > flat[j].counted.count
		}
		return flat[i].counted.firstSeen < flat[j].counted.firstSeen
	})

	if limit > 0 && len(flat) > limit {
		flat = flat[:limit]
	}

	out := make([]models.MessageCount, len(flat))
	for i, e := range flat {
		out[i] = models.MessageCount{Message: e.message, Count: e.counted.count}
	}
	return out
}

func sortCritical(m map[string]*criticalAccum) []models.CriticalErrorRecord {
	flat := make([]*criticalAccum, 0, len(m))
	for _, grp := range m {
		flat = append(flat, grp)
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].count != flat[j].count {
			return flat[i].count > flat[j].count
		}
		return flat[i].firstSeen < flat[j].firstSeen
	})

	out := make([]models.CriticalErrorRecord, len(flat))
	for i, grp := range flat {
		out[i] = models.CriticalErrorRecord{
			Sample:   grp.sample,
			Category: grp.category,
			Count:    grp.count,
		}
	}
	return out
}

// entryHour extracts the 0-23 hour from an ISO-8601 timestamp.
func entryHour(ts string) (int, bool) {
	if ts == "" {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return 0, false
	}
	return t.Hour(), true
}
