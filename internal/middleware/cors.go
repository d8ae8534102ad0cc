package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sekata-go/internal/config"
)

var loopbackPrefixes = []string{
	"http://localhost:",
	"http://127.0.0.1:",
	"http://[::1]:",
	"https://localhost:",
	"https://127.0.0.1:",
	"https://[::1]:",
}

// DevCORS lets browser clients served from a loopback port call the dev
// server. Origins listed in WSAllowedOrigins are accepted in every env.
func DevCORS(cfg config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range cfg.WSAllowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" {
			c.Next()
			return
		}

		if allowed[origin] || (cfg.AppEnv == "development" && isLoopback(origin)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isLoopback(origin string) bool {
	for _, p := range loopbackPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}
