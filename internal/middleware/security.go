// security.go injects protective HTTP response headers. Badge images are embedded
// cross-origin (READMEs, image proxies), so the badge profile relaxes
// Cross-Origin-Resource-Policy while the JSON profile keeps it same-origin.
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for security headers
type SecurityHeadersConfig struct {
	// EnableHSTS enables HTTP Strict Transport Security
	EnableHSTS bool
	// HSTSMaxAge is the max-age value for HSTS in seconds
	HSTSMaxAge int
	HSTSIncludeSubdomains bool
	// EnableFrameOptions enables X-Frame-Options header
	EnableFrameOptions bool
	// FrameOptionsValue is the value for X-Frame-Options (DENY, SAMEORIGIN)
	FrameOptionsValue string
	// EnableContentTypeOptions enables X-Content-Type-Options: nosniff
	EnableContentTypeOptions bool
	// ContentSecurityPolicy is the CSP header value
	ContentSecurityPolicy string
	// ReferrerPolicy is the Referrer-Policy header value
	ReferrerPolicy string
	// CrossOriginResourcePolicy is same-origin, same-site or cross-origin
	CrossOriginResourcePolicy string
}

// APISecurityHeadersConfig returns headers for the JSON endpoints
func APISecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:                true,
		HSTSMaxAge:                31536000, // 1 year
		HSTSIncludeSubdomains:     true,
		EnableFrameOptions:        true,
		FrameOptionsValue:         "DENY",
		EnableContentTypeOptions:  true,
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:            "no-referrer",
		CrossOriginResourcePolicy: "same-origin",
	}
}

// BadgeSecurityHeadersConfig returns headers for relayed badge images. The CSP
// lets an SVG badge use its inline styles and data: logos and nothing else.
func BadgeSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:                true,
		HSTSMaxAge:                31536000,
		HSTSIncludeSubdomains:     true,
		EnableContentTypeOptions:  true,
		ContentSecurityPolicy:     "default-src 'none'; img-src data:; style-src 'unsafe-inline'",
		ReferrerPolicy:            "no-referrer",
		CrossOriginResourcePolicy: "cross-origin",
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware(config SecurityHeadersConfig) gin.HandlerFunc {
	var hsts string
	if config.EnableHSTS {
		hsts = "max-age=" + strconv.Itoa(config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(c *gin.Context) {
		if hsts != "" {
			c.Header("Strict-Transport-Security", hsts)
		}
		if config.EnableFrameOptions && config.FrameOptionsValue != "" {
			c.Header("X-Frame-Options", config.FrameOptionsValue)
		}
		if config.EnableContentTypeOptions {
			c.Header("X-Content-Type-Options", "nosniff")
		}
		if config.ContentSecurityPolicy != "" {
			c.Header("Content-Security-Policy", config.ContentSecurityPolicy)
		}
		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}
		if config.CrossOriginResourcePolicy != "" {
			c.Header("Cross-Origin-Resource-Policy", config.CrossOriginResourcePolicy)
		}
		c.Header("X-Permitted-Cross-Domain-Policies", "none")

		c.Next()
	}
}
