package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsPolicy matches request origins against the configured list.
//
// An entry is either a full origin ("https://admin.example.com"), a wildcard
// host ("*.example.com", matching example.com and any subdomain on any
// scheme), or "*" for any origin.
type corsPolicy struct {
	any      bool
	origins  map[string]struct{}
	suffixes []string
}

func newCORSPolicy(allowed []string) corsPolicy {
	p := corsPolicy{origins: map[string]struct{}{}}
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(entry), "/"))
		switch {
		case entry == "":
		case entry == "*":
			p.any = true
		case strings.HasPrefix(entry, "*."):
			p.suffixes = append(p.suffixes, entry[2:])
		default:
			p.origins[entry] = struct{}{}
		}
	}

	return p
}

func (p corsPolicy) allow(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false
	}
	if p.any {
		return true
	}

	if _, ok := p.origins[strings.ToLower(parsed.Scheme+"://"+parsed.Host)]; ok {
		return true
	}

	host := strings.ToLower(parsed.Hostname())
	for _, suffix := range p.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}

	return false
}

// allowCORS echoes allowed origins with credentials enabled,
// preflights from other origins are refused.
func allowCORS(allowed []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowed)
	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		if !policy.allow(origin) {
			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}

			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		ctx.Header("Access-Control-Max-Age", "86400")
		ctx.Header("Vary", "Origin")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
