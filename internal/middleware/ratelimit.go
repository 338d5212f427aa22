package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/openvms/gatekit/internal/identity"
	"github.com/openvms/gatekit/internal/observability"
	"github.com/openvms/gatekit/internal/ratelimit"
)

// rateLimitResponse is the 429 response body.
type rateLimitResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
	Timestamp  string `json:"timestamp"`
}

// rateLimitMiddleware enforces sliding window limits per client and
// endpoint pair.
type rateLimitMiddleware struct {
	limiter  ratelimit.Limiter
	rules    *ratelimit.RuleSet
	resolver *identity.Resolver
	logger   observability.Logger
	metrics  *ratelimit.Metrics
}

// RateLimitOption is a functional option for configuring the rate limit
// middleware.
type RateLimitOption func(*rateLimitMiddleware)

// WithRateLimitLogger sets the logger.
func WithRateLimitLogger(logger observability.Logger) RateLimitOption {
	return func(m *rateLimitMiddleware) {
		m.logger = logger
	}
}

// WithRateLimitMetrics sets the metrics.
func WithRateLimitMetrics(metrics *ratelimit.Metrics) RateLimitOption {
	return func(m *rateLimitMiddleware) {
		m.metrics = metrics
	}
}

// RateLimit returns the rate limiting middleware. Requests with no
// applicable rule pass through untouched. Limiter errors fail open: an
// unreachable counter store must not take the API down with it.
func RateLimit(limiter ratelimit.Limiter, rules *ratelimit.RuleSet, resolver *identity.Resolver, opts ...RateLimitOption) func(http.Handler) http.Handler {
	m := &rateLimitMiddleware{
		limiter:  limiter,
		rules:    rules,
		resolver: resolver,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(w, r, next)
		})
	}
}

func (m *rateLimitMiddleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	endpointKey := m.resolver.EndpointKey(r)
	authenticated := identity.FromContext(r.Context()) != nil

	rule := m.rules.Resolve(endpointKey, authenticated)
	if rule == nil {
		next.ServeHTTP(w, r)
		return
	}

	clientKey := m.resolver.ClientKey(r)
	counterKey := clientKey + "|" + endpointKey

	result, err := m.limiter.Allow(r.Context(), counterKey, *rule)
	if err != nil {
		m.logger.Error("rate limiter unavailable, allowing request",
			observability.String("client", clientKey),
			observability.String("endpoint", endpointKey),
			observability.Error(err),
		)
		next.ServeHTTP(w, r)
		return
	}

	setRateLimitHeaders(w, result)

	if !result.Allowed {
		m.metrics.RecordDecision(ratelimit.DecisionRejected)
		m.logger.Warn("rate limit exceeded",
			observability.String("client", clientKey),
			observability.String("endpoint", endpointKey),
			observability.Int("limit", result.Limit),
		)
		m.reject(w, result)
		return
	}

	m.metrics.RecordDecision(ratelimit.DecisionAllowed)
	next.ServeHTTP(w, r)
}

// setRateLimitHeaders advertises the limit state on every limited response.
func setRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	reset := time.Now().Add(result.ResetAfter).Unix()
	w.Header().Set(HeaderXRateLimitLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderXRateLimitRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderXRateLimitReset, strconv.FormatInt(reset, 10))
}

// reject writes the 429 response.
func (m *rateLimitMiddleware) reject(w http.ResponseWriter, result *ratelimit.Result) {
	retryAfter := int64(result.RetryAfter / time.Second)

	w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(http.StatusTooManyRequests)

	body := rateLimitResponse{
		Success:    false,
		Message:    "Rate limit exceeded. Please try again later.",
		Error:      "too_many_requests",
		RetryAfter: retryAfter,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.logger.Error("failed to encode rate limit response", observability.Error(err))
	}
}
