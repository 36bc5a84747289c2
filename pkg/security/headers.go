package security

import "github.com/gin-gonic/gin"

// Headers sets the baseline response security headers spec §4.1 names
// explicitly: no sniffing, no framing, HSTS, no referrer leak. Neither
// service serves browser content directly, but the Dashboard (spec
// §1, external collaborator) proxies through the Gateway, so these
// still apply to its traffic.
func Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
