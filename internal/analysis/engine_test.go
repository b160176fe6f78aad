package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lokiscope/lokiscope/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, th Thresholds) *Engine {
	t.Helper()
	e, err := New(Config{
		Categories: testCategories(),
		Thresholds: th,
	})
	require.NoError(t, err)
	return e
}

func rawEntry(app, message string) models.RawEntry {
	return models.RawEntry{
		Labels: map[string]string{"app": app, "pod": app + "-0", "namespace": "default"},
		Line:   fmt.Sprintf(`{"level":"error","message":%q}`, message),
	}
}

func TestNew_RequiresCategories(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
}

func TestNew_RejectsEmptyKeywords(t *testing.T) {
	_, err := New(Config{Categories: []models.Category{{Name: "db"}}})
	require.Error(t, err)
}

func TestNew_RejectsNegativeThresholds(t *testing.T) {
	_, err := New(Config{
		Categories: testCategories(),
		Thresholds: Thresholds{MinServiceErrors: -1},
	})
	require.Error(t, err)
}

func TestNew_RejectsInvertedSeverityThresholds(t *testing.T) {
	_, err := New(Config{
		Categories: testCategories(),
		Severity:   SeverityThresholds{CriticalAbove: 10, WarningAbove: 50},
	})
	require.Error(t, err)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	e := testEngine(t, Thresholds{})

	result := e.Analyze(nil)

	assert.Zero(t, result.TotalErrors)
	assert.Empty(t, result.ServiceMetrics)
	assert.NotNil(t, result.ServiceMetrics)
	assert.Empty(t, result.CriticalErrors)
	assert.Empty(t, result.TopMessages)
}

func TestAnalyze_EndToEndScenario(t *testing.T) {
	e := testEngine(t, Thresholds{MinServiceErrors: 1, MinMessageOccurrences: 1, MinCriticalOccurrences: 1})

	raw := []models.RawEntry{
		rawEntry("A", "connection refused"),
		rawEntry("A", "connection refused"),
		{
			Labels: map[string]string{"app": "B", "pod": "B-0", "namespace": "default"},
			Line:   `{"level":"warn","message":"slow response"}`,
		},
	}

	result := e.Analyze(raw)

	assert.Equal(t, 3, result.TotalErrors)
	require.Contains(t, result.ServiceMetrics, "A")
	require.Contains(t, result.ServiceMetrics, "B")
	assert.Equal(t, 2, result.ServiceMetrics["A"].TotalErrors)
	assert.Equal(t, 2, result.ServiceMetrics["A"].CriticalErrorCount)
	assert.Equal(t, 1, result.ServiceMetrics["B"].TotalErrors)
	assert.Equal(t, 0, result.ServiceMetrics["B"].CriticalErrorCount)

	require.Len(t, result.CriticalErrors, 1)
	assert.Equal(t, "connection refused", result.CriticalErrors[0].Sample.Message)
	assert.Equal(t, 2, result.CriticalErrors[0].Count)
	assert.Equal(t, 2, result.CriticalErrorTotal)
}

func TestAnalyze_ServiceTotalsSumToGlobal(t *testing.T) {
	e := testEngine(t, Thresholds{})

	var raw []models.RawEntry
	for i := 0; i < 7; i++ {
		raw = append(raw, rawEntry("svc-a", "timeout"))
	}
	for i := 0; i < 3; i++ {
		raw = append(raw, rawEntry("svc-b", "malformed body"))
	}
	raw = append(raw, rawEntry("svc-c", "whatever"))

	result := e.Analyze(raw)

	sum := 0
	for _, m := range result.ServiceMetrics {
		sum += m.TotalErrors
	}
	assert.Equal(t, result.TotalErrors, sum)
	assert.Equal(t, 11, result.TotalErrors)
}

func TestAnalyze_MalformedLineStillCounts(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{{
		Labels: map[string]string{"app": "legacy"},
		Line:   "not structured at all",
	}}

	result := e.Analyze(raw)

	require.Equal(t, 1, result.TotalErrors)
	m := result.ServiceMetrics["legacy"]
	assert.Equal(t, 1, m.TotalErrors)
	assert.Equal(t, 1, m.CategoryHistogram[models.CategoryOther])
	require.Len(t, m.TopMessages, 1)
	assert.Equal(t, "not structured at all", m.TopMessages[0].Message)
}

func TestAnalyze_CriticalGroupingByPrefix(t *testing.T) {
	e := testEngine(t, Thresholds{})

	prefix := strings.Repeat("x", 90) + " timeout a"
	raw := []models.RawEntry{
		rawEntry("A", prefix+"first suffix"),
		rawEntry("A", prefix+"completely different suffix"),
	}

	result := e.Analyze(raw)

	require.Len(t, result.CriticalErrors, 1)
	assert.Equal(t, 2, result.CriticalErrors[0].Count)
	// Representative sample keeps the first full message.
	assert.Equal(t, prefix+"first suffix", result.CriticalErrors[0].Sample.Message)
}

func TestAnalyze_CriticalErrorsOrderedByCount(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		rawEntry("A", "rare timeout variant"),
		rawEntry("A", "common 503 from gateway"),
		rawEntry("A", "common 503 from gateway"),
		rawEntry("A", "common 503 from gateway"),
	}

	result := e.Analyze(raw)

	require.Len(t, result.CriticalErrors, 2)
	assert.Equal(t, "common 503 from gateway", result.CriticalErrors[0].Sample.Message)
	assert.Equal(t, 3, result.CriticalErrors[0].Count)
	assert.Equal(t, "rare timeout variant", result.CriticalErrors[1].Sample.Message)
}

func TestAnalyze_TopMessagesTieBreakByFirstSeen(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		rawEntry("A", "first message"),
		rawEntry("A", "second message"),
		rawEntry("A", "third message"),
	}

	for run := 0; run < 5; run++ {
		result := e.Analyze(raw)
		require.Len(t, result.TopMessages, 3)
		assert.Equal(t, "first message", result.TopMessages[0].Message)
		assert.Equal(t, "second message", result.TopMessages[1].Message)
		assert.Equal(t, "third message", result.TopMessages[2].Message)
	}
}

func TestAnalyze_PerServiceTopMessagesCapped(t *testing.T) {
	e := testEngine(t, Thresholds{})

	var raw []models.RawEntry
	for i := 0; i < 8; i++ {
		raw = append(raw, rawEntry("A", fmt.Sprintf("distinct message %d", i)))
	}

	result := e.Analyze(raw)

	m := result.ServiceMetrics["A"]
	assert.Len(t, m.TopMessages, DefaultLimits().TopMessagesPerService)
}

func TestAnalyze_HourHistogram(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		{Labels: map[string]string{"app": "A"}, Line: `{"level":"error","message":"x","timestamp":"2024-02-17T01:47:32Z"}`},
		{Labels: map[string]string{"app": "A"}, Line: `{"level":"error","message":"y","timestamp":"2024-02-17T01:12:00Z"}`},
		{Labels: map[string]string{"app": "A"}, Line: `{"level":"error","message":"z","timestamp":"2024-02-17T23:59:59Z"}`},
		{Labels: map[string]string{"app": "A"}, Line: `{"level":"error","message":"no ts"}`},
	}

	result := e.Analyze(raw)

	assert.Equal(t, 2, result.HourHistogram[1])
	assert.Equal(t, 1, result.HourHistogram[23])
	assert.Equal(t, 4, result.TotalErrors)
}

func TestAnalyze_NamespaceHistogram(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		{Labels: map[string]string{"app": "A", "namespace": "payments"}, Line: `{"message":"x"}`},
		{Labels: map[string]string{"app": "B", "namespace": "payments"}, Line: `{"message":"y"}`},
		{Labels: map[string]string{"app": "C"}, Line: `{"message":"z"}`},
	}

	result := e.Analyze(raw)

	assert.Equal(t, 2, result.NamespaceHistogram["payments"])
	assert.Equal(t, 1, result.NamespaceHistogram[models.UnknownLabel])
}

func TestAnalyze_ServiceOrderIsFirstSeen(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		rawEntry("zeta", "a"),
		rawEntry("alpha", "b"),
		rawEntry("zeta", "c"),
		rawEntry("mid", "d"),
	}

	result := e.Analyze(raw)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, result.ServiceOrder)
}

func TestAnalyze_EmptyMessagesExcludedFromTopMessages(t *testing.T) {
	e := testEngine(t, Thresholds{})

	raw := []models.RawEntry{
		{Labels: map[string]string{"app": "A"}, Line: `{"level":"error"}`},
		rawEntry("A", "real message"),
	}

	result := e.Analyze(raw)

	assert.Equal(t, 2, result.TotalErrors)
	require.Len(t, result.TopMessages, 1)
	assert.Equal(t, "real message", result.TopMessages[0].Message)
}

func TestTruncate_RespectsRuneBoundaries(t *testing.T) {
	s := "héllo wörld"
	got := truncate(s, 2)
	assert.Equal(t, "h", got)
	assert.Equal(t, s, truncate(s, 100))
}
