package httpserver

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/netx"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "peek-limiter"

// RateLimit limits requests per authenticated user, falling back to the
// client address. Counters live in Redis when a client is given, in memory
// otherwise.
func RateLimit(rateFormatted string, rdb *redis.Client, log logging.Logger) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q: %w", rateFormatted, err)
	}

	var store limiter.Store
	if rdb != nil {
		store, err = redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: limiterPrefix})
		if err != nil {
			return nil, fmt.Errorf("limiter redis store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix})
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, rate),
		stdlibmw.WithKeyGetter(func(r *http.Request) string {
			if id, ok := UserID(r.Context()); ok {
				return "user:" + id
			}
			return "ip:" + netx.ClientIP(r)
		}),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, r, log, err)
		}),
	)
	return mw.Handler, nil
}
