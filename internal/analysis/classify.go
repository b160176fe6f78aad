package analysis

import (
	"strings"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// defaultCriticalKeywords flag entries that indicate user-visible
// failure regardless of category: timeouts, connection failures, 5xx.
var defaultCriticalKeywords = []string{
	"timeout",
	"connection refused",
	"connection failed",
	"eofexception",
	"503",
	"502",
	"500",
}

// Classifier assigns a category and a critical flag to normalized
// entries. Category matching is first-match-wins over the configured
// ordered list; critical detection is independent of category. The
// zero value is not usable; construct with NewClassifier.
type Classifier struct {
	categories []models.Category // keywords pre-lowercased
	critical   []string
}

// NewClassifier builds a classifier from an ordered category list and
// optional extra critical keywords (e.g. "fatal", "critical").
func NewClassifier(categories []models.Category, extraCritical []string) *Classifier {
	c := &Classifier{
		categories: make([]models.Category, len(categories)),
		critical:   make([]string, 0, len(defaultCriticalKeywords)+len(extraCritical)),
	}

	for i, cat := range categories {
		lowered := models.Category{
			Name:     cat.Name,
			Keywords: make([]string, len(cat.Keywords)),
		}
		for j, kw := range cat.Keywords {
			lowered.Keywords[j] = strings.ToLower(kw)
		}
		c.categories[i] = lowered
	}

	c.critical = append(c.critical, defaultCriticalKeywords...)
	for _, kw := range extraCritical {
		c.critical = append(c.critical, strings.ToLower(kw))
	}

	return c
}

// Categorize returns the name of the first configured category with
// any keyword substring-matching the entry's combined text, or
// models.CategoryOther when none match.
func (c *Classifier) Categorize(entry models.NormalizedEntry) string {
	text := combinedText(entry)
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				return cat.Name
			}
		}
	}
	return models.CategoryOther
}

// IsCritical reports whether the entry matches the critical keyword
// set. Orthogonal to Categorize: an entry can be both categorized and
// critical.
func (c *Classifier) IsCritical(entry models.NormalizedEntry) bool {
	text := combinedText(entry)
	for _, kw := range c.critical {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// combinedText is the lower-cased concatenation of message and stack
// trace, the single haystack both classifiers search.
func combinedText(entry models.NormalizedEntry) string {
	return strings.ToLower(entry.Message + " " + entry.StackTrace)
}
