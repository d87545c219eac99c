package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iroy-mg/iroy-backend/internal/domain/providers"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/observability"
)

// CacheConfig holds cache behaviour for one route prefix.
type CacheConfig struct {
	TTL     time.Duration
	Enabled bool
}

// CacheMiddleware caches GET responses in Redis, keyed by path and query.
// Admin routes are never cached.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates the middleware with the directory's route TTLs.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		routeConfigs: map[string]CacheConfig{
			"/api/popular-services": {TTL: 5 * time.Minute, Enabled: true},
			"/api/centres":          {TTL: 2 * time.Minute, Enabled: true},
			"/api/navigation/route": {TTL: 10 * time.Minute, Enabled: true},
		},
	}
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware returns the cache handler.
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.routeConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)
		ctx := r.Context()

		if data, err := m.cache.Get(ctx, key); err == nil && data != nil {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.RecordCacheHit(ctx, m.metrics, r.URL.Path)
				w.Header().Set("Content-Type", cached.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.Status)
				w.Write(cached.Body)
				return
			}
		}
		observability.RecordCacheMiss(ctx, m.metrics, r.URL.Path)

		rec := &recordingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		rec.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)

		// Only successful responses are worth keeping.
		if rec.statusCode == http.StatusOK {
			cached := cachedResponse{
				Status:      rec.statusCode,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if data, err := json.Marshal(cached); err == nil {
				if err := m.cache.Set(ctx, key, data, config.TTL); err != nil {
					logger := observability.GetLogger()
					logger.Warn().Err(err).Str("key", key).Msg("failed to cache response")
				}
			}
		}
	})
}

func (m *CacheMiddleware) routeConfig(path string) CacheConfig {
	// Admin and write endpoints bypass the cache entirely.
	if strings.HasPrefix(path, "/api/admin") {
		return CacheConfig{}
	}
	if config, ok := m.routeConfigs[path]; ok {
		return config
	}
	for prefix, config := range m.routeConfigs {
		if strings.HasPrefix(path, prefix+"/") {
			return config
		}
	}
	return CacheConfig{}
}

func cacheKey(r *http.Request) string {
	sum := sha256.Sum256([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("http_cache:%s", hex.EncodeToString(sum[:]))
}

// recordingResponseWriter duplicates the response body for the cache store.
type recordingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *recordingResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *recordingResponseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}
