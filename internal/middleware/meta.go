package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// WithResponseMeta gives handlers a metadata map that is echoed in the response envelope.
// The request id is always included.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta["request_id"] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetCacheHit records whether the payload came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// SetMeta stores a single metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := ExtractMeta(c); meta != nil {
		meta[key] = value
		return
	}
	c.Set(responseMetaKey, map[string]interface{}{key: value})
}

// ExtractMeta returns the metadata map stored on the context, or nil.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}
