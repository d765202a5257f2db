package models

import "time"

// EntityPair is one extraction result from the prediction model.
// Label is drawn from a small controlled vocabulary (PRODUCT, METRIC, ORG, TEAM, ...).
type EntityPair struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Prediction is the per-review output of the entity-extraction API.
type Prediction struct {
	Text      string       `json:"text"`
	Sentiment string       `json:"sentiment"`
	Entities  []EntityPair `json:"entities"`
}

// DateRange is an inclusive calendar-date window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SeriesPoint is one calendar date of the root-cause time series.
// NegativeRate is nil when there was nothing to divide by.
type SeriesPoint struct {
	Date         time.Time `json:"date"`
	Volume       int64     `json:"volume"`
	NegativeRate *float64  `json:"negative_rate"`
}

type TopicCount struct {
	Topic            string `json:"topic"`
	NegativeMentions int64  `json:"negative_mentions"`
}

type RootCausePage struct {
	Range    DateRange     `json:"range"`
	Series   []SeriesPoint `json:"series"`
	Topics   []TopicCount  `json:"topics"`
	TopIssue string        `json:"top_issue,omitempty"`
	NoData   bool          `json:"no_data"`
}

type GeoRow struct {
	Location     string   `json:"location"`
	TotalReviews int64    `json:"total_reviews"`
	NegativePct  *float64 `json:"negative_pct"`
}

type GeoPage struct {
	Rows          []GeoRow `json:"rows"`
	WorstLocation string   `json:"worst_location,omitempty"`
	NoData        bool     `json:"no_data"`
}

type FeatureRow struct {
	Feature     string   `json:"feature"`
	Mentions    int64    `json:"mentions"`
	PositivePct *float64 `json:"positive_pct"`
}

type FeaturePage struct {
	Rows   []FeatureRow `json:"rows"`
	Top    []FeatureRow `json:"top"`
	Bottom []FeatureRow `json:"bottom"`
	NoData bool         `json:"no_data"`
}

type TrendRow struct {
	Topic      string   `json:"topic"`
	VolRecent  int64    `json:"vol_recent"`
	VolPast    int64    `json:"vol_past"`
	GrowthRate *float64 `json:"growth_rate"`
}

type TrendPage struct {
	Cutoff   time.Time  `json:"cutoff"`
	Rows     []TrendRow `json:"rows"`
	TopTrend string     `json:"top_trend,omitempty"`
	NoData   bool       `json:"no_data"`
}

type CompetitorPage struct {
	Rows   []CompetitorRow `json:"rows"`
	NoData bool            `json:"no_data"`
}

type CompetitorRow struct {
	Competitor             string   `json:"competitor"`
	Mentions               int64    `json:"mentions"`
	NegativeAssociationPct *float64 `json:"negative_association_pct"`
}
