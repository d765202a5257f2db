// Package query builds the parameterized analytical SQL behind each insight
// page. User-supplied values are always bound parameters; the only text
// spliced into a statement is the table reference, which is validated as a
// plain identifier when the Builder is constructed.
package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TopicPrefix is the literal tag the topic model prepends to every label.
// It is stripped before display.
const TopicPrefix = "Topic: "

const (
	DefaultTopicLimit      = 10
	DefaultGeoLimit        = 20
	DefaultFeatureLimit    = 20
	DefaultTrendLimit      = 10
	DefaultCompetitorLimit = 10
)

// FeatureLabels selects entity pairs that describe product components.
var FeatureLabels = []string{"PRODUCT", "METRIC"}

// CompetitorLabels selects entity pairs that can name a competitor. TEAM and
// PRODUCT are included because review text rarely tags rivals as ORG alone.
var CompetitorLabels = []string{"ORG", "TEAM", "PRODUCT"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Builder produces complete statements for one insight table. All methods
// are pure; the zero value is unusable, construct with New.
type Builder struct {
	table string
}

// New validates every part of the table reference as a bare SQL identifier.
// Table names cannot be bound parameters, so anything fancier is rejected.
func New(schema, table string) (Builder, error) {
	for _, part := range []string{schema, table} {
		if !identRe.MatchString(part) {
			return Builder{}, fmt.Errorf("invalid identifier %q", part)
		}
	}
	return Builder{table: schema + "." + table}, nil
}

// Table returns the validated, fully qualified table reference.
func (b Builder) Table() string {
	return b.table
}

// DateBounds finds the available review date window at or after epoch,
// used to seed the root-cause date pickers.
func (b Builder) DateBounds(epoch time.Time) (string, []any) {
	sql := fmt.Sprintf(`
SELECT MIN(review_date::date) AS min_date,
       MAX(review_date::date) AS max_date
FROM %s
WHERE review_date >= $1`, b.table)
	return strings.TrimSpace(sql), []any{epoch}
}

// RootCauseSeries returns, per calendar date in the inclusive range, the
// review volume and the negative rate. The division is guarded: zero volume
// yields NULL, never zero and never an error.
func (b Builder) RootCauseSeries(start, end time.Time) (string, []any) {
	sql := fmt.Sprintf(`
SELECT review_date::date AS date,
       COUNT(review_id) AS volume,
       COUNT(*) FILTER (WHERE LOWER(predicted_sentiment) = 'negative')::float
           / NULLIF(COUNT(review_id), 0) AS negative_rate
FROM %s
WHERE review_date::date BETWEEN $1 AND $2
GROUP BY 1
ORDER BY 1`, b.table)
	return strings.TrimSpace(sql), []any{start, end}
}

// RootCauseTopics counts negative mentions per topic inside the range,
// most-mentioned first.
func (b Builder) RootCauseTopics(start, end time.Time, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultTopicLimit
	}
	sql := fmt.Sprintf(`
SELECT REPLACE(predicted_topic, '%s', '') AS topic,
       COUNT(review_id) AS negative_mentions
FROM %s
WHERE LOWER(predicted_sentiment) = 'negative'
  AND review_date::date BETWEEN $1 AND $2
GROUP BY 1
ORDER BY 2 DESC
LIMIT $3`, TopicPrefix, b.table)
	return strings.TrimSpace(sql), []any{start, end, limit}
}

// GeoHotspots ranks well-formed two-letter regions by negative rate. The
// denominator counts rows with a known sentiment, so unclassified reviews
// do not dilute the rate, and malformed location codes are excluded rather
// than counted as clean regions.
func (b Builder) GeoHotspots(limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultGeoLimit
	}
	sql := fmt.Sprintf(`
SELECT TRIM(location) AS location,
       COUNT(review_id) AS total_reviews,
       COUNT(*) FILTER (WHERE LOWER(predicted_sentiment) = 'negative')::float
           / NULLIF(COUNT(*) FILTER (WHERE predicted_sentiment IS NOT NULL), 0) AS negative_pct
FROM %s
WHERE location IS NOT NULL
  AND TRIM(location) ~ '^[A-Za-z]{2}$'
GROUP BY 1
HAVING COUNT(review_id) > 0
ORDER BY negative_pct DESC NULLS LAST
LIMIT $1`, b.table)
	return strings.TrimSpace(sql), []any{limit}
}

// ProductFeatures aggregates PRODUCT/METRIC entity pairs by lower-cased,
// trimmed text and computes the positive rate per feature.
func (b Builder) ProductFeatures(limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultFeatureLimit
	}
	sql := fmt.Sprintf(`
SELECT TRIM(LOWER(entity->>'text')) AS feature,
       COUNT(*) AS mentions,
       COUNT(*) FILTER (WHERE LOWER(predicted_sentiment) = 'positive')::float
           / NULLIF(COUNT(*), 0) AS positive_pct
FROM %s, jsonb_array_elements(extracted_entities) AS entity
WHERE entity->>'label' = ANY($1)
GROUP BY 1
HAVING COUNT(*) > 0
ORDER BY mentions DESC
LIMIT $2`, b.table)
	return strings.TrimSpace(sql), []any{FeatureLabels, limit}
}

// EmergingTrends compares topic volume at or after the cutoff against the
// volume before it. A topic absent from the past window gets vol_past = 1,
// so a genuinely new topic with N recent mentions grows at N-1 instead of
// blowing up to infinity.
func (b Builder) EmergingTrends(cutoff time.Time, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	sql := fmt.Sprintf(`
WITH recent AS (
    SELECT predicted_topic AS topic, COUNT(review_id) AS vol_recent
    FROM %s
    WHERE review_date >= $1
    GROUP BY 1
),
past AS (
    SELECT predicted_topic AS topic, COUNT(review_id) AS vol_past
    FROM %s
    WHERE review_date < $1
    GROUP BY 1
)
SELECT REPLACE(r.topic, '%s', '') AS topic,
       r.vol_recent,
       COALESCE(p.vol_past, 1) AS vol_past,
       (r.vol_recent - COALESCE(p.vol_past, 1))::float
           / GREATEST(COALESCE(p.vol_past, 1), 1) AS growth_rate
FROM recent r
LEFT JOIN past p USING (topic)
WHERE r.vol_recent > 0
ORDER BY growth_rate DESC
LIMIT $2`, b.table, b.table, TopicPrefix)
	return strings.TrimSpace(sql), []any{cutoff, limit}
}

// CompetitiveIntel aggregates entity pairs that can name a competitor,
// excluding the caller's own product terms (compared lower-cased).
func (b Builder) CompetitiveIntel(excluded []string, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultCompetitorLimit
	}
	lowered := make([]string, len(excluded))
	for i, t := range excluded {
		lowered[i] = strings.ToLower(strings.TrimSpace(t))
	}
	sql := fmt.Sprintf(`
SELECT TRIM(entity->>'text') AS competitor,
       COUNT(*) AS mentions,
       COUNT(*) FILTER (WHERE LOWER(predicted_sentiment) = 'negative')::float
           / NULLIF(COUNT(*), 0) AS negative_association_pct
FROM %s, jsonb_array_elements(extracted_entities) AS entity
WHERE entity->>'label' = ANY($1)
  AND LOWER(TRIM(entity->>'text')) <> ALL($2)
GROUP BY 1
HAVING COUNT(*) > 0
ORDER BY mentions DESC
LIMIT $3`, b.table)
	return strings.TrimSpace(sql), []any{CompetitorLabels, lowered, limit}
}

// ListTables lists the tables visible in a schema, for the admin debug view.
func ListTables(schema string) (string, []any) {
	sql := `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
ORDER BY table_name`
	return strings.TrimSpace(sql), []any{schema}
}
