// Package shape turns raw warehouse result sets into display-ready pages.
// Shaping is deterministic and independent of the query engine: an empty
// result set always produces a defined "no data" value, never an error.
package shape

import (
	"sort"
	"strings"

	"github.com/voicelens/backend/internal/insight/query"
	"github.com/voicelens/backend/internal/models"
	"github.com/voicelens/backend/internal/warehouse"
)

// CleanTopic strips the model's "Topic: " tag. Stripping an already-clean
// label leaves it unchanged.
func CleanTopic(s string) string {
	return strings.TrimPrefix(s, query.TopicPrefix)
}

func Series(rs *warehouse.ResultSet) []models.SeriesPoint {
	if rs.Empty() {
		return nil
	}
	out := make([]models.SeriesPoint, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.SeriesPoint{
			Date:         rs.Time(i, "date"),
			Volume:       rs.Int64(i, "volume"),
			NegativeRate: rs.NullFloat64(i, "negative_rate"),
		})
	}
	return out
}

func Topics(rs *warehouse.ResultSet) []models.TopicCount {
	if rs.Empty() {
		return nil
	}
	out := make([]models.TopicCount, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.TopicCount{
			Topic:            CleanTopic(rs.String(i, "topic")),
			NegativeMentions: rs.Int64(i, "negative_mentions"),
		})
	}
	return out
}

func Geo(rs *warehouse.ResultSet) []models.GeoRow {
	if rs.Empty() {
		return nil
	}
	out := make([]models.GeoRow, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.GeoRow{
			Location:     rs.String(i, "location"),
			TotalReviews: rs.Int64(i, "total_reviews"),
			NegativePct:  rs.NullFloat64(i, "negative_pct"),
		})
	}
	return out
}

func Features(rs *warehouse.ResultSet) []models.FeatureRow {
	if rs.Empty() {
		return nil
	}
	out := make([]models.FeatureRow, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.FeatureRow{
			Feature:     rs.String(i, "feature"),
			Mentions:    rs.Int64(i, "mentions"),
			PositivePct: rs.NullFloat64(i, "positive_pct"),
		})
	}
	return out
}

// SplitFeatures pulls the three best and three worst features by positive
// rate. The slices never overlap: the bottom slice is taken from what the
// top slice left over, then re-sorted ascending so the worst feature leads.
// Features with an unknown rate sort below every known rate.
func SplitFeatures(rows []models.FeatureRow) (top, bottom []models.FeatureRow) {
	if len(rows) == 0 {
		return nil, nil
	}
	sorted := make([]models.FeatureRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessPct(sorted[j].PositivePct, sorted[i].PositivePct)
	})

	n := len(sorted)
	topN := 3
	if topN > n {
		topN = n
	}
	top = sorted[:topN]

	rest := sorted[topN:]
	bottomN := 3
	if bottomN > len(rest) {
		bottomN = len(rest)
	}
	bottom = make([]models.FeatureRow, bottomN)
	copy(bottom, rest[len(rest)-bottomN:])
	sort.SliceStable(bottom, func(i, j int) bool {
		return lessPct(bottom[i].PositivePct, bottom[j].PositivePct)
	})
	return top, bottom
}

// lessPct orders nil (insufficient data) below any known rate.
func lessPct(a, b *float64) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

func Trends(rs *warehouse.ResultSet) []models.TrendRow {
	if rs.Empty() {
		return nil
	}
	out := make([]models.TrendRow, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.TrendRow{
			Topic:      CleanTopic(rs.String(i, "topic")),
			VolRecent:  rs.Int64(i, "vol_recent"),
			VolPast:    rs.Int64(i, "vol_past"),
			GrowthRate: rs.NullFloat64(i, "growth_rate"),
		})
	}
	return out
}

func Competitors(rs *warehouse.ResultSet) []models.CompetitorRow {
	if rs.Empty() {
		return nil
	}
	out := make([]models.CompetitorRow, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, models.CompetitorRow{
			Competitor:             rs.String(i, "competitor"),
			Mentions:               rs.Int64(i, "mentions"),
			NegativeAssociationPct: rs.NullFloat64(i, "negative_association_pct"),
		})
	}
	return out
}
