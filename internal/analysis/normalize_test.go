package analysis

import (
	"testing"

	"github.com/lokiscope/lokiscope/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_StructuredPayload(t *testing.T) {
	raw := models.RawEntry{
		Labels: map[string]string{
			"app":       "boost-fee-worker",
			"pod":       "boost-fee-worker-7d4f9",
			"namespace": "payments",
		},
		Line: `{"level":"error","message":"refund failed","stackTrace":"java.lang.NullPointerException",` +
			`"timestamp":"2024-02-17T01:47:32Z","source":{"file":"ListingServiceAdapter.java","method":"refund"}}`,
	}

	entry := Normalize(raw)

	assert.Equal(t, "boost-fee-worker", entry.App)
	assert.Equal(t, "boost-fee-worker-7d4f9", entry.Pod)
	assert.Equal(t, "payments", entry.Namespace)
	assert.Equal(t, "error", entry.Level)
	assert.Equal(t, "refund failed", entry.Message)
	assert.Equal(t, "java.lang.NullPointerException", entry.StackTrace)
	assert.Equal(t, "2024-02-17T01:47:32Z", entry.Timestamp)
	assert.Equal(t, "ListingServiceAdapter.java", entry.SourceFile)
	assert.Equal(t, "refund", entry.SourceMethod)
}

func TestNormalize_MissingLabelsDefaultToUnknown(t *testing.T) {
	entry := Normalize(models.RawEntry{Line: `{"level":"error","message":"x"}`})

	assert.Equal(t, models.UnknownLabel, entry.App)
	assert.Equal(t, models.UnknownLabel, entry.Pod)
	assert.Equal(t, models.UnknownLabel, entry.Namespace)
	assert.Equal(t, models.UnknownLabel, entry.Container)
}

func TestNormalize_NonJSONLineDegrades(t *testing.T) {
	raw := models.RawEntry{
		Labels:    map[string]string{"app": "legacy"},
		Line:      "panic: runtime error at main.go:42",
		Timestamp: "2024-02-17T03:00:00Z",
	}

	entry := Normalize(raw)

	assert.Equal(t, "panic: runtime error at main.go:42", entry.Message)
	assert.Equal(t, models.UnknownLabel, entry.Level)
	assert.Empty(t, entry.StackTrace)
	// Stream timestamp carries through when the payload has none.
	assert.Equal(t, "2024-02-17T03:00:00Z", entry.Timestamp)
}

func TestNormalize_ObjectMessageIsStringified(t *testing.T) {
	raw := models.RawEntry{
		Line: `{"level":"error","message":{"code":500,"detail":"upstream"}}`,
	}

	entry := Normalize(raw)

	assert.Contains(t, entry.Message, `"code":500`)
	assert.Contains(t, entry.Message, `"detail":"upstream"`)
}

func TestNormalize_StreamTimestampFallback(t *testing.T) {
	raw := models.RawEntry{
		Line:      `{"level":"error","message":"x"}`,
		Timestamp: "2024-02-17T09:15:00Z",
	}

	entry := Normalize(raw)
	assert.Equal(t, "2024-02-17T09:15:00Z", entry.Timestamp)
}

func TestNormalize_EmptyLine(t *testing.T) {
	entry := Normalize(models.RawEntry{})

	assert.Equal(t, "", entry.Message)
	assert.Equal(t, models.UnknownLabel, entry.Level)
}
