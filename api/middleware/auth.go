package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/models"
)

// IdentityContextKey holds a stable, non-secret identifier of the
// authenticated caller. RateLimit buckets by it.
const IdentityContextKey = "caller_identity"

// Auth accepts requests carrying one of apiKeys in either
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// An empty key list leaves the routes open.
func Auth(apiKeys []string) gin.HandlerFunc {
	digests := make([][32]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := presentedKey(c.Request)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewErrorResponse(
				models.ErrCodeUnauthorized,
				"missing API key: send X-API-Key or Authorization: Bearer <key>",
			))
			return
		}

		sum := sha256.Sum256([]byte(key))
		if !knownDigest(digests, sum) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewErrorResponse(
				models.ErrCodeUnauthorized, "invalid API key",
			))
			return
		}

		c.Set(IdentityContextKey, "key:"+hex.EncodeToString(sum[:6]))
		c.Next()
	}
}

func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// knownDigest scans every entry so timing does not reveal which key matched.
func knownDigest(digests [][32]byte, sum [32]byte) bool {
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return found == 1
}
