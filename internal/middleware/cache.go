package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-booking/internal/config"
)

// cachedResponse is the value stored per cache key.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// bodyRecorder tees the response body into a bounded buffer.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// ResponseCache keeps successful GET responses in Redis for a short TTL.
// Writes that change a cached listing call Purge with the listing path.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewResponseCache returns a cache over rdb.  A nil client or a disabled
// config yields a cache that stores nothing.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if !cfg.Enabled {
		rdb = nil
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

// key is "<prefix>:<path>:<sha1 of query>", so every variant of a path can
// be purged by pattern.
func (rc *ResponseCache) key(path, rawQuery string) string {
	sum := sha1.Sum([]byte(rawQuery))
	return rc.cfg.Prefix + ":" + path + ":" + hex.EncodeToString(sum[:])
}

// Middleware serves GET requests from the cache and stores 200 responses
// not larger than MaxBodyBytes.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rc.rdb == nil {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			key := rc.key(req.URL.Path, req.URL.RawQuery)
			if raw, err := rc.rdb.Get(req.Context(), key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(cr.Status, cr.ContentType, cr.Body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err == nil {
				if err := rc.rdb.Set(context.Background(), key, payload, rc.cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("cache: store %s: %v", key, err)
				}
			}
			return nil
		}
	}
}

// Purge drops every cached variant of the given request paths.
func (rc *ResponseCache) Purge(ctx context.Context, paths ...string) error {
	if rc.rdb == nil {
		return nil
	}
	for _, p := range paths {
		iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":"+p+":*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
