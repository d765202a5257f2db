// Package insight orchestrates one dashboard page at a time: resolve
// parameters, build the query, fetch, shape, return a display-ready value.
// Pages are isolated failure domains; nothing here is shared between
// invocations except the immutable table reference and the optional cache.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/voicelens/backend/internal/insight/query"
	"github.com/voicelens/backend/internal/insight/shape"
	"github.com/voicelens/backend/internal/models"
	"github.com/voicelens/backend/internal/warehouse"
)

// Cache stores shaped pages for a short TTL. Optional; nil disables caching
// and every render goes to the warehouse.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Service struct {
	Gateway       warehouse.Gateway
	Builder       query.Builder
	Cache         Cache
	CacheTTL      time.Duration
	ExcludedTerms []string
	Logger        zerolog.Logger
}

// RootCause renders the sentiment time series plus the negative-topic
// breakdown for the resolved date range. Nil bounds are seeded from the
// warehouse's available window.
func (s *Service) RootCause(ctx context.Context, start, end *time.Time, topicLimit int) (models.RootCausePage, error) {
	rng, err := s.resolveDateRange(ctx, start, end)
	if err != nil {
		return models.RootCausePage{}, err
	}

	seriesSQL, seriesArgs := s.Builder.RootCauseSeries(rng.Start, rng.End)
	topicsSQL, topicsArgs := s.Builder.RootCauseTopics(rng.Start, rng.End, topicLimit)

	var page models.RootCausePage
	key := cacheKey("root-cause", seriesSQL, seriesArgs, topicsArgs)
	if s.cached(ctx, key, &page) {
		return page, nil
	}

	seriesRS, err := s.Gateway.Query(ctx, seriesSQL, seriesArgs...)
	if err != nil {
		return models.RootCausePage{}, err
	}
	topicsRS, err := s.Gateway.Query(ctx, topicsSQL, topicsArgs...)
	if err != nil {
		return models.RootCausePage{}, err
	}

	page = models.RootCausePage{
		Range:  rng,
		Series: shape.Series(seriesRS),
		Topics: shape.Topics(topicsRS),
	}
	if len(page.Topics) > 0 {
		page.TopIssue = page.Topics[0].Topic
	}
	page.NoData = len(page.Series) == 0 && len(page.Topics) == 0

	s.store(ctx, key, page)
	return page, nil
}

// GeoHotspots ranks regions by negative sentiment rate.
func (s *Service) GeoHotspots(ctx context.Context) (models.GeoPage, error) {
	sql, args := s.Builder.GeoHotspots(query.DefaultGeoLimit)

	var page models.GeoPage
	key := cacheKey("geo-hotspots", sql, args)
	if s.cached(ctx, key, &page) {
		return page, nil
	}

	rs, err := s.Gateway.Query(ctx, sql, args...)
	if err != nil {
		return models.GeoPage{}, err
	}

	page = models.GeoPage{Rows: shape.Geo(rs)}
	if len(page.Rows) > 0 {
		page.WorstLocation = page.Rows[0].Location
	}
	page.NoData = len(page.Rows) == 0

	s.store(ctx, key, page)
	return page, nil
}

// ProductFeatures aggregates component sentiment and splits out the best
// and worst three features.
func (s *Service) ProductFeatures(ctx context.Context, limit int) (models.FeaturePage, error) {
	sql, args := s.Builder.ProductFeatures(limit)

	var page models.FeaturePage
	key := cacheKey("product-features", sql, args)
	if s.cached(ctx, key, &page) {
		return page, nil
	}

	rs, err := s.Gateway.Query(ctx, sql, args...)
	if err != nil {
		return models.FeaturePage{}, err
	}

	page = models.FeaturePage{Rows: shape.Features(rs)}
	page.Top, page.Bottom = shape.SplitFeatures(page.Rows)
	page.NoData = len(page.Rows) == 0

	s.store(ctx, key, page)
	return page, nil
}

// EmergingTrends compares topic volume around the cutoff date. A nil cutoff
// defaults to thirty days back, approximating a month-over-month window.
func (s *Service) EmergingTrends(ctx context.Context, cutoff *time.Time, limit int) (models.TrendPage, error) {
	cut := today().AddDate(0, 0, -30)
	if cutoff != nil {
		cut = *cutoff
	}
	sql, args := s.Builder.EmergingTrends(cut, limit)

	var page models.TrendPage
	key := cacheKey("emerging-trends", sql, args)
	if s.cached(ctx, key, &page) {
		return page, nil
	}

	rs, err := s.Gateway.Query(ctx, sql, args...)
	if err != nil {
		return models.TrendPage{}, err
	}

	page = models.TrendPage{Cutoff: cut, Rows: shape.Trends(rs)}
	if len(page.Rows) > 0 {
		page.TopTrend = page.Rows[0].Topic
	}
	page.NoData = len(page.Rows) == 0

	s.store(ctx, key, page)
	return page, nil
}

// Competitors aggregates mentions of outside organizations and products,
// minus the configured own-product terms.
func (s *Service) Competitors(ctx context.Context, limit int) (models.CompetitorPage, error) {
	sql, args := s.Builder.CompetitiveIntel(s.ExcludedTerms, limit)

	var page models.CompetitorPage
	key := cacheKey("competitors", sql, args)
	if s.cached(ctx, key, &page) {
		return page, nil
	}

	rs, err := s.Gateway.Query(ctx, sql, args...)
	if err != nil {
		return models.CompetitorPage{}, err
	}

	page = models.CompetitorPage{Rows: shape.Competitors(rs)}
	page.NoData = len(page.Rows) == 0

	s.store(ctx, key, page)
	return page, nil
}

// cached reports a cache hit. Cache errors degrade to a live query.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, v, s.CacheTTL); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// cacheKey hashes the exact SQL plus its bound arguments, so any change to
// either the statement or the parameters is a new cache entry.
func cacheKey(page string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v|", p)
	}
	return "insight:" + page + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}
