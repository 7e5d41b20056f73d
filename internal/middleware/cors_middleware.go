package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins; "*" allows any origin. Requests from
// other origins are rejected with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := make([]string, 0, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		switch origin {
		case "":
		case "*":
			allowAll = true
		default:
			origins = append(origins, origin)
		}
	}

	switch {
	case allowAll:
		// Reflect the caller's origin; a literal "*" cannot carry credentials.
		config.AllowOriginFunc = func(string) bool { return true }
	case len(origins) == 0:
		config.AllowOriginFunc = func(string) bool { return false }
	default:
		config.AllowOrigins = origins
	}

	return cors.New(config)
}
