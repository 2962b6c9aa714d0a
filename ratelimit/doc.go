// Package ratelimit provides rate limiting with interchangeable algorithms.
//
// Four algorithms are available behind one Limiter interface:
//
//   - Token bucket: capacity refills continuously and is consumed per request.
//   - Leaky bucket: an accumulated level drains continuously and is filled
//     per request.
//   - Sliding window: exact per-request timestamps within a trailing window.
//   - Adaptive: a token bucket whose limit is retuned from the observed
//     success rate reported by callers.
//
// A Registry layers named limiters, hierarchical per-(user, resource)
// limits, global limits, and exponential-backoff acquisition on top:
//
//	reg := ratelimit.NewRegistry()
//	reg.AddLimiter("search", ratelimit.Config{
//	    MaxRequests: 100,
//	    TimeWindow:  time.Minute,
//	}, "api")
//
//	if !reg.Check("search", "api", ratelimit.CheckOptions{}) {
//	    // denied; reg.WaitTime reports how long until capacity frees up
//	}
package ratelimit
