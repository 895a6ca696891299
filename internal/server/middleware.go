package server

import (
	"fmt"
	"net/http"
	"time"

	"auction-engine/services/bidding/handler"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"route":   c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if bidder := c.GetHeader(handler.UserIDHeader); bidder != "" {
		fields["bidder_id"] = bidder
	}
	utils.Info("HTTP Request", fields)
}

// sliding window over a sorted set: trim, count, admit
// KEYS[1]=limit key, ARGV: now(ms), window start(ms), window(s), member, limit
// returns the request count inside the window, or -1 when the caller is over the limit
var slidingWindow = rd.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
end
return -1
`)

// BidRateLimit throttles bid submissions per bidder, falling back to the client IP.
// It fails open: a Redis error lets the request through.
func BidRateLimit(rdb *rd.Client, limit int, window time.Duration) gin.HandlerFunc {
	windowSec := int64(window.Seconds())
	if windowSec < 1 {
		windowSec = 1
	}
	return func(c *gin.Context) {
		key := "rate_limit:bids:ip:" + c.ClientIP()
		if bidder := c.GetHeader(handler.UserIDHeader); bidder != "" {
			key = "rate_limit:bids:user:" + bidder
		}

		now := time.Now()
		nowMs := now.UnixMilli()
		windowStart := nowMs - windowSec*1000
		member := fmt.Sprintf("%d-%d", nowMs, now.UnixNano())

		res, err := slidingWindow.Run(c.Request.Context(), rdb, []string{key},
			nowMs, windowStart, windowSec, member, limit).Int()
		if err != nil {
			utils.Warn("BidRateLimit: redis unavailable, request admitted", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		if res < 0 {
			utils.Warn("BidRateLimit: request throttled", map[string]any{"key": key, "limit": limit})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  http.StatusTooManyRequests,
				"message": "too many bids, slow down",
			})
			return
		}
		c.Next()
	}
}
