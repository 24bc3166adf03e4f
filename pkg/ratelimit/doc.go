// Package ratelimit enforces per-scope attempt quotas on top of a shared
// counter store.
//
// A Registry maps request paths and scope names to Rules. Paths are matched
// exactly first, then against templates such as /orders/{id}/transitions
// segment by segment; the template with the fewest wildcards wins and ties go
// to the one registered first.
//
// A Limiter counts attempts in fixed windows keyed by
// rl:{scope}:{identity}:{window start}. Fixed windows are cheap and atomic but
// a burst straddling a boundary can admit up to twice the nominal rate.
//
// # Buckets
//
//   - by_user counts per authenticated user, anonymous callers per IP.
//   - by_ip counts per client address.
//   - by_email counts per submitted email, falling back to IP.
//
// User and email buckets are separate per website when the Subject carries a
// WebsiteID. IP buckets are shared.
//
// # Failure policy
//
// Every store call is bounded by a timeout. When the store is unavailable the
// rule's FailPolicy decides: open admits, closed rejects. Scopes such as login
// and password_reset default to closed. The condition is always logged and
// returned as ErrStoreUnavailable alongside a degraded Result.
//
// # Usage
//
//	registry, err := ratelimit.LoadRulesFile("configs/ratelimit.yaml")
//	limiter, err := ratelimit.NewLimiter(store, registry,
//	    ratelimit.WithLogger(log),
//	    ratelimit.WithMetrics(ratelimit.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//	router.Use(ratelimit.Middleware(limiter, ratelimit.WithUserIDFunc(userIDFromRequest)))
//
//	res, err := limiter.Admit(ctx, "order_transition", ratelimit.Subject{UserID: actor.ID})
//	if !res.Allowed {
//	    return res.Err() // *ExceededError with WaitSeconds
//	}
package ratelimit
