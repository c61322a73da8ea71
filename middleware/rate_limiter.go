package middleware

import (
	"net"
	"sync"
	"time"

	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/time/rate"
)

// FromLoopback reports whether the request came from this host, as the
// form page's own calls to the schedule endpoint do.
func FromLoopback(c *fiber.Ctx) bool {
	return isLoopback(c.IP())
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

// RateLimiter allows each client IP a burst of requests that refills over
// duration. A non-positive requests count disables limiting. Requests for
// which any skip func returns true are not counted.
func RateLimiter(requests int, duration time.Duration, skip ...func(c *fiber.Ctx) bool) fiber.Handler {
	if requests <= 0 || duration <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		clients = make(map[string]*client)
		mu      sync.Mutex
	)

	// Cleanup old clients every 5 minutes
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 10*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *fiber.Ctx) error {
		for _, fn := range skip {
			if fn(c) {
				return c.Next()
			}
		}
		ip := c.IP()

		mu.Lock()
		cl, exists := clients[ip]
		if !exists {
			limiter := rate.NewLimiter(rate.Every(duration/time.Duration(requests)), requests)
			cl = &client{limiter: limiter}
			clients[ip] = cl
		}
		cl.lastSeen = time.Now()
		mu.Unlock()

		if !cl.limiter.Allow() {
			loc, _ := c.Locals("localizer").(*i18n.Localizer)
			utils.Log.Warn("Rate limit exceeded for %s on %s", ip, c.Path())
			return utils.TooManyRequestsError(utils.T(loc, utils.MsgRateLimited))
		}

		return c.Next()
	}
}
