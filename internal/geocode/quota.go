package geocode

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// ErrQuotaExhausted signals that the daily request budget is spent. Callers
// stop geocoding for the rest of the day and load rows without coordinates.
var ErrQuotaExhausted = errors.New("geocode: daily quota exhausted")

// Quota enforces the provider's terms: a minimum spacing between requests
// and a hard daily cap that resets at local midnight.
type Quota struct {
	limiter *rate.Limiter
	clock   clockwork.Clock

	mu    sync.Mutex
	day   int // year*1000 + day-of-year of the current window
	used  int
	limit int
}

// NewQuota allows requestsPerSecond sustained throughput and dailyLimit
// requests per calendar day. clock is injectable for rollover tests; pass
// clockwork.NewRealClock() in production.
func NewQuota(requestsPerSecond float64, dailyLimit int, clock clockwork.Clock) *Quota {
	return &Quota{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		clock:   clock,
		limit:   dailyLimit,
	}
}

// Reserve claims one request slot, blocking for rate spacing. It fails with
// ErrQuotaExhausted once the daily budget is spent and with ctx.Err() on
// cancellation while waiting.
func (q *Quota) Reserve(ctx context.Context) error {
	q.mu.Lock()
	today := dayStamp(q.clock)
	if today != q.day {
		q.day = today
		q.used = 0
	}
	if q.used >= q.limit {
		q.mu.Unlock()
		return ErrQuotaExhausted
	}
	q.used++
	q.mu.Unlock()

	return q.limiter.Wait(ctx)
}

// Remaining reports how many requests are left in the current day.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if dayStamp(q.clock) != q.day {
		return q.limit
	}
	return q.limit - q.used
}

func dayStamp(clock clockwork.Clock) int {
	now := clock.Now()
	return now.Year()*1000 + now.YearDay()
}

// QuotaGeocoder decorates a Geocoder with quota enforcement. It sits inside
// the cache decorator so cache hits never spend quota.
type QuotaGeocoder struct {
	inner Geocoder
	quota *Quota
}

func NewQuotaGeocoder(inner Geocoder, quota *Quota) *QuotaGeocoder {
	return &QuotaGeocoder{inner: inner, quota: quota}
}

func (g *QuotaGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	if err := g.quota.Reserve(ctx); err != nil {
		return nil, err
	}
	return g.inner.Geocode(ctx, query)
}
