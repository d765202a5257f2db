package insight

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/voicelens/backend/internal/insight/query"
	"github.com/voicelens/backend/internal/warehouse"
)

// ---- fakes ----

type fakeGateway struct {
	results map[string]*warehouse.ResultSet // keyed by SQL substring
	err     error
	calls   []struct {
		sql  string
		args []any
	}
}

func (f *fakeGateway) Query(ctx context.Context, sql string, args ...any) (*warehouse.ResultSet, error) {
	f.calls = append(f.calls, struct {
		sql  string
		args []any
	}{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	for k, rs := range f.results {
		if strings.Contains(sql, k) {
			return rs, nil
		}
	}
	return &warehouse.ResultSet{}, nil
}

type fakeCache struct {
	store map[string][]byte
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.sets++
	return nil
}

func newService(gw *fakeGateway) *Service {
	b, _ := query.New("voicelens", "dummy_insight")
	return &Service{
		Gateway:       gw,
		Builder:       b,
		ExcludedTerms: []string{"voicelens"},
		Logger:        zerolog.Nop(),
	}
}

func dptr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// ---- tests ----

func TestRootCauseExplicitRange(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"negative_rate": {
			Columns: []string{"date", "volume", "negative_rate"},
			Rows: [][]any{
				{d1, int64(2), 0.5},
				{d2, int64(1), 1.0},
			},
		},
		"negative_mentions": {
			Columns: []string{"topic", "negative_mentions"},
			Rows: [][]any{
				{"Shipping", int64(4)},
				{"Billing", int64(1)},
			},
		},
	}}
	s := newService(gw)

	page, err := s.RootCause(context.Background(), dptr(2024, 1, 1), dptr(2024, 1, 2), 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	// both bounds given: no bounds query, just series + topics
	if len(gw.calls) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(gw.calls))
	}
	for _, call := range gw.calls {
		if len(call.args) < 2 || call.args[0] != d1 || call.args[1] != d2 {
			t.Fatalf("range not bound into query args: %v", call.args)
		}
	}

	if len(page.Series) != 2 || page.Series[0].Volume != 2 || *page.Series[0].NegativeRate != 0.5 {
		t.Fatalf("unexpected series: %+v", page.Series)
	}
	if *page.Series[1].NegativeRate != 1.0 {
		t.Fatalf("unexpected series: %+v", page.Series)
	}
	if page.TopIssue != "Shipping" {
		t.Fatalf("expected top issue Shipping, got %q", page.TopIssue)
	}
	if page.NoData {
		t.Fatalf("page should not be flagged no-data")
	}
}

func TestRootCauseInvertedRangeRejectedBeforeQuery(t *testing.T) {
	gw := &fakeGateway{}
	s := newService(gw)

	_, err := s.RootCause(context.Background(), dptr(2024, 2, 1), dptr(2024, 1, 1), 0)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("no query may run for an invalid range, got %d calls", len(gw.calls))
	}
}

func TestRootCauseBoundsFallback(t *testing.T) {
	// bounds query returns no usable dates: defaults kick in
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"min_date": {Columns: []string{"min_date", "max_date"}, Rows: [][]any{{nil, nil}}},
	}}
	s := newService(gw)

	page, err := s.RootCause(context.Background(), nil, nil, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !page.Range.Start.Equal(defaultEpoch) {
		t.Fatalf("expected epoch fallback, got %s", page.Range.Start)
	}
	if page.Range.End.Before(page.Range.Start) {
		t.Fatalf("fallback range inverted: %+v", page.Range)
	}
	if !page.NoData {
		t.Fatalf("empty results must flag no-data")
	}
	if page.TopIssue != "" {
		t.Fatalf("empty results must not produce a headline, got %q", page.TopIssue)
	}
}

func TestRootCauseBoundsSeedDefaults(t *testing.T) {
	min := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	max := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"min_date": {Columns: []string{"min_date", "max_date"}, Rows: [][]any{{min, max}}},
	}}
	s := newService(gw)

	page, err := s.RootCause(context.Background(), nil, nil, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !page.Range.Start.Equal(min) || !page.Range.End.Equal(max) {
		t.Fatalf("bounds not seeded from warehouse: %+v", page.Range)
	}
}

func TestGeoHotspotsHeadline(t *testing.T) {
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"negative_pct": {
			Columns: []string{"location", "total_reviews", "negative_pct"},
			Rows: [][]any{
				{"FR", int64(1), 1.0},
				{"US", int64(2), 0.5},
			},
		},
	}}
	s := newService(gw)

	page, err := s.GeoHotspots(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if page.WorstLocation != "FR" {
		t.Fatalf("expected FR as worst location, got %q", page.WorstLocation)
	}
	if page.Rows[1].Location != "US" || *page.Rows[1].NegativePct != 0.5 {
		t.Fatalf("unexpected rows: %+v", page.Rows)
	}
}

func TestGeoHotspotsEmpty(t *testing.T) {
	s := newService(&fakeGateway{})
	page, err := s.GeoHotspots(context.Background())
	if err != nil {
		t.Fatalf("empty result must not error: %v", err)
	}
	if !page.NoData || page.WorstLocation != "" || len(page.Rows) != 0 {
		t.Fatalf("expected defined no-data page, got %+v", page)
	}
}

func TestGeoHotspotsConnectivityError(t *testing.T) {
	gw := &fakeGateway{err: &warehouse.ConnectivityError{Err: errors.New("dial refused")}}
	s := newService(gw)

	_, err := s.GeoHotspots(context.Background())
	var connErr *warehouse.ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
}

func TestProductFeaturesSplit(t *testing.T) {
	p := func(f float64) any { return f }
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"positive_pct": {
			Columns: []string{"feature", "mentions", "positive_pct"},
			Rows: [][]any{
				{"battery", int64(40), p(0.2)},
				{"screen", int64(30), p(0.9)},
				{"price", int64(20), p(0.5)},
				{"camera", int64(15), p(0.8)},
				{"speaker", int64(10), p(0.3)},
				{"case", int64(5), p(0.7)},
				{"charger", int64(2), p(0.6)},
			},
		},
	}}
	s := newService(gw)

	page, err := s.ProductFeatures(context.Background(), 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(page.Rows) != 7 || len(page.Top) != 3 || len(page.Bottom) != 3 {
		t.Fatalf("unexpected shapes: rows=%d top=%d bottom=%d", len(page.Rows), len(page.Top), len(page.Bottom))
	}
	if page.Top[0].Feature != "screen" {
		t.Fatalf("unexpected best feature: %+v", page.Top)
	}
	if page.Bottom[0].Feature != "battery" {
		t.Fatalf("worst feature must lead the bottom slice: %+v", page.Bottom)
	}
}

func TestEmergingTrendsDefaultCutoff(t *testing.T) {
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"growth_rate": {
			Columns: []string{"topic", "vol_recent", "vol_past", "growth_rate"},
			Rows:    [][]any{{"Dark Mode", int64(5), int64(1), 4.0}},
		},
	}}
	s := newService(gw)

	page, err := s.EmergingTrends(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if page.TopTrend != "Dark Mode" {
		t.Fatalf("unexpected top trend: %q", page.TopTrend)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("expected 1 query, got %d", len(gw.calls))
	}
	cut, ok := gw.calls[0].args[0].(time.Time)
	if !ok || cut.After(time.Now()) || cut.Before(time.Now().AddDate(0, 0, -31)) {
		t.Fatalf("default cutoff not around 30 days back: %v", gw.calls[0].args[0])
	}
	if !page.Cutoff.Equal(cut) {
		t.Fatalf("page cutoff does not match query arg")
	}
}

func TestCompetitorsPassesExclusions(t *testing.T) {
	gw := &fakeGateway{}
	s := newService(gw)

	page, err := s.Competitors(context.Background(), 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !page.NoData {
		t.Fatalf("expected no-data page")
	}
	excluded, ok := gw.calls[0].args[1].([]string)
	if !ok || len(excluded) != 1 || excluded[0] != "voicelens" {
		t.Fatalf("own terms not bound: %v", gw.calls[0].args)
	}
}

func TestCachedPageSkipsWarehouse(t *testing.T) {
	gw := &fakeGateway{}
	s := newService(gw)
	s.Cache = &fakeCache{}
	s.CacheTTL = time.Minute

	if _, err := s.GeoHotspots(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("first render should hit the warehouse")
	}

	if _, err := s.GeoHotspots(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("second render should be served from cache, got %d calls", len(gw.calls))
	}
}

func TestCachedDefaultRangeSkipsBoundsQuery(t *testing.T) {
	min := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	max := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	gw := &fakeGateway{results: map[string]*warehouse.ResultSet{
		"min_date": {Columns: []string{"min_date", "max_date"}, Rows: [][]any{{min, max}}},
	}}
	s := newService(gw)
	s.Cache = &fakeCache{}
	s.CacheTTL = time.Minute

	if _, err := s.RootCause(context.Background(), nil, nil, 0); err != nil {
		t.Fatalf("err: %v", err)
	}
	// bounds + series + topics
	if len(gw.calls) != 3 {
		t.Fatalf("first render should cost 3 queries, got %d", len(gw.calls))
	}

	page, err := s.RootCause(context.Background(), nil, nil, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(gw.calls) != 3 {
		t.Fatalf("cached default render must not touch the warehouse, got %d calls", len(gw.calls))
	}
	if !page.Range.Start.Equal(min) || !page.Range.End.Equal(max) {
		t.Fatalf("cached range lost its bounds: %+v", page.Range)
	}
}
