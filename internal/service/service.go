package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grzegorczykanna/UBSWebAPI/internal/cache"
	"github.com/grzegorczykanna/UBSWebAPI/internal/client"
	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
	"github.com/grzegorczykanna/UBSWebAPI/internal/metrics"
	"github.com/grzegorczykanna/UBSWebAPI/internal/view"
)

// CountryClient defines the interface for an external country data source.
// This allows us to mock the client in tests.
type CountryClient interface {
	FetchRaw(ctx context.Context, kind domain.PartitionKind, key string) ([]byte, error)
}

// CountryService runs country views over one partition at a time.
type CountryService interface {
	Query(ctx context.Context, q Query) (domain.ResultSet, error)
	Invalidate(ctx context.Context, kind domain.PartitionKind, key string) error
	ClearCache(ctx context.Context) error
}

// Query names a partition and the view to apply to it.
type Query struct {
	Kind domain.PartitionKind
	Key  string
	View view.Kind
}

// Options tune the pipeline. The zero value is lenient with view defaults.
type Options struct {
	// Strict fails the whole query on the first malformed upstream record
	// instead of dropping it.
	Strict bool
	TopN   int
	// MinBorders left unset uses the view default.
	MinBorders domain.Optional[int]
	// Timeout bounds a query; zero leaves only the caller's deadline.
	Timeout time.Duration
}

type countryService struct {
	cache  cache.Cache
	client CountryClient // Depend on the interface, not the concrete type
	log    logrus.FieldLogger
	opts   Options
}

// NewCountryService creates a new instance of the country service. A nil
// cache disables caching.
func NewCountryService(c cache.Cache, client CountryClient, log logrus.FieldLogger, opts Options) CountryService {
	if c == nil {
		c = cache.Noop{}
	}
	return &countryService{
		cache:  c,
		client: client,
		log:    log,
		opts:   opts,
	}
}

// Query fetches the partition, normalizes its records and applies the view.
func (s *countryService) Query(ctx context.Context, q Query) (domain.ResultSet, error) {
	if !q.Kind.Valid() {
		return domain.ResultSet{}, fmt.Errorf("unknown partition kind %q", q.Kind)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	raws, err := s.fetch(ctx, q.Kind, q.Key)
	if err != nil {
		return domain.ResultSet{}, err
	}

	log := s.log.WithFields(logrus.Fields{"kind": q.Kind, "key": q.Key})
	var skip func(client.RawCountry, error)
	if !s.opts.Strict {
		skip = func(_ client.RawCountry, err error) {
			metrics.RecordMalformedRecord()
			log.WithError(err).Warn("skipping malformed upstream record")
		}
	}
	records, err := client.NormalizeAll(raws, skip)
	if err != nil {
		return domain.ResultSet{}, err
	}

	return view.Apply(q.View, records, view.Options{
		TopN:       s.opts.TopN,
		MinBorders: s.opts.MinBorders,
		Label:      q.Key,
	})
}

// fetch returns the partition's documents, using a cache-first strategy.
func (s *countryService) fetch(ctx context.Context, kind domain.PartitionKind, key string) ([]client.RawCountry, error) {
	cacheKey := cache.Key(kind, key)
	log := s.log.WithField("cache_key", cacheKey)

	cached, found, err := s.cache.Get(ctx, cacheKey)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		log.WithError(err).Warn("cache lookup failed")
	case found:
		raws, perr := client.ParseCountries(cached)
		if perr == nil {
			metrics.RecordCacheLookup("hit")
			log.Debug("cache hit")
			return raws, nil
		}
		metrics.RecordCacheLookup("error")
		log.WithError(perr).Warn("discarding unreadable cache entry")
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			log.WithError(err).Warn("failed to delete unreadable cache entry")
		}
	default:
		metrics.RecordCacheLookup("miss")
		log.Debug("cache miss, fetching from upstream")
	}

	start := time.Now()
	body, err := s.client.FetchRaw(ctx, kind, key)
	metrics.RecordUpstream(string(kind), outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	raws, err := client.ParseCountries(body)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, body); err != nil {
		log.WithError(err).Warn("cache store failed")
	} else {
		log.Debug("cache set")
	}
	return raws, nil
}

func (s *countryService) Invalidate(ctx context.Context, kind domain.PartitionKind, key string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown partition kind %q", kind)
	}
	return s.cache.Delete(ctx, cache.Key(kind, key))
}

func (s *countryService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, client.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
