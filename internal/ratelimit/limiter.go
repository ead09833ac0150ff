package ratelimit

import (
	"strings"
	"time"

	"github.com/askdoc/askdoc/internal/config"
)

// Policy is a fixed per-route admission rule, known at startup.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Limiter admits or rejects requests per (identity, route) with a sliding
// window. Construct one per process and inject it where needed; all state
// lives in the backing Store, so a restart resets every counter.
type Limiter struct {
	store    Store
	policies map[string]Policy
	now      func() time.Time
}

func NewLimiter(policies map[string]config.RatePolicy) *Limiter {
	converted := make(map[string]Policy, len(policies))
	for route, p := range policies {
		converted[route] = Policy{
			Limit:  p.Limit,
			Window: time.Duration(p.WindowSeconds) * time.Second,
		}
	}
	return &Limiter{
		store:    NewMemoryStore(),
		policies: converted,
		now:      time.Now,
	}
}

// WithStore swaps the backing window store. The calling contract is
// unchanged; this is the seam for a shared store in a multi-instance
// deployment.
func (l *Limiter) WithStore(store Store) *Limiter {
	if store != nil {
		l.store = store
	}
	return l
}

// Policy returns the route's policy, if the route is tracked at all.
func (l *Limiter) Policy(route string) (Policy, bool) {
	p, ok := l.policies[route]
	return p, ok
}

// Check applies the route policy to the identity. Routes without a policy
// are always allowed and leave no trace. On rejection retryAfter is the
// number of seconds until the oldest recorded hit falls out of the window,
// never less than 1.
func (l *Limiter) Check(identity, route string) (allowed bool, retryAfter int) {
	policy, ok := l.policies[route]
	if !ok {
		return true, 0
	}
	now := l.now()
	key := strings.Join([]string{identity, route}, "|")
	ok, oldest := l.store.Take(key, now, policy.Limit, policy.Window)
	if ok {
		return true, 0
	}
	retry := int((policy.Window - now.Sub(oldest)) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return false, retry
}

// Identity picks the principal a quota is scoped to: the user id when the
// caller supplied one, else the network address. Two users behind one
// address get independent quotas; one user keeps one quota across addresses.
func Identity(userID, ip string) string {
	if userID != "" {
		return userID
	}
	return ip
}
