package iam

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/gigmarket/marketapi/internal/repository"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

// SubscriptionConfig tunes SubscriptionChecker. A zero CacheTTL disables caching.
type SubscriptionConfig struct {
	LookupTimeout time.Duration
	CacheTTL      time.Duration
	CacheSize     int
	Now           func() time.Time
}

// SubscriptionChecker reports a worker's subscription status.
//
// Concurrent lookups for the same subject share one store round trip, bounded
// by LookupTimeout and independent of any single caller's cancellation.
// Successful lookups may be cached for CacheTTL; failures never are.
type SubscriptionChecker struct {
	subs    repository.SubscriptionRepository
	timeout time.Duration
	now     func() time.Time
	metrics *telemetry.AuthMetrics

	group singleflight.Group
	cache *expirable.LRU[int64, auth.SubscriptionStatus]
}

// NewSubscriptionChecker creates a checker over subs. metrics may be nil.
func NewSubscriptionChecker(subs repository.SubscriptionRepository, cfg SubscriptionConfig, metrics *telemetry.AuthMetrics) *SubscriptionChecker {
	c := &SubscriptionChecker{
		subs:    subs,
		timeout: cfg.LookupTimeout,
		now:     cfg.Now,
		metrics: metrics,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultLookupTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.CacheTTL > 0 && cfg.CacheSize > 0 {
		c.cache = expirable.NewLRU[int64, auth.SubscriptionStatus](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

// Status returns active, inactive or unknown for the subject.
//
// A subject with no subscription row is unknown. A store error or timeout is
// also unknown and is returned wrapped in auth.ErrSubscriptionLookupFailed.
func (c *SubscriptionChecker) Status(ctx context.Context, subjectID int64) (auth.SubscriptionStatus, error) {
	if c.cache != nil {
		if status, ok := c.cache.Get(subjectID); ok {
			c.metrics.RecordSubscriptionCache(true)
			return status, nil
		}
		c.metrics.RecordSubscriptionCache(false)
	}

	// The shared lookup must not inherit any one caller's cancellation; each
	// caller stops waiting on its own context instead.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatInt(subjectID, 10), func() (any, error) {
		return c.lookup(shared, subjectID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return auth.SubscriptionUnknown, res.Err
		}
		status := res.Val.(auth.SubscriptionStatus)
		if c.cache != nil {
			c.cache.Add(subjectID, status)
		}
		return status, nil
	case <-ctx.Done():
		return auth.SubscriptionUnknown, fmt.Errorf("%w: %w", auth.ErrSubscriptionLookupFailed, ctx.Err())
	}
}

func (c *SubscriptionChecker) lookup(ctx context.Context, subjectID int64) (auth.SubscriptionStatus, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sub, err := c.subs.FindActiveSubscription(lookupCtx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.SubscriptionUnknown, nil
		}
		return auth.SubscriptionUnknown, fmt.Errorf("%w: %w", auth.ErrSubscriptionLookupFailed, err)
	}
	if sub == nil {
		return auth.SubscriptionUnknown, nil
	}
	return classify(sub, c.now()), nil
}

// classify treats a subscription as active when its status is active and its
// current period, if bounded, has not ended.
func classify(sub *models.Subscription, now time.Time) auth.SubscriptionStatus {
	if sub.Status != models.SubscriptionStatusActive {
		return auth.SubscriptionInactive
	}
	if sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(now) {
		return auth.SubscriptionInactive
	}
	return auth.SubscriptionActive
}
