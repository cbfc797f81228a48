package httpapi

import (
	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/valyala/fasthttp"
)

const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type, Authorization"
)

// applyCORS writes CORS headers for an allowed Origin. Credentials are
// allowed, so the origin is echoed rather than answered with "*".
func (s *HTTPServer) applyCORS(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin))
	if origin == "" {
		return
	}

	ctx.Response.Header.Add(fasthttp.HeaderVary, fasthttp.HeaderOrigin)
	if _, ok := s.origins[origin]; !ok && !s.anyOrig {
		return
	}

	h := &ctx.Response.Header
	h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
	h.Set(fasthttp.HeaderAccessControlAllowCredentials, "true")
	h.Set(fasthttp.HeaderAccessControlAllowMethods, allowMethods)
	h.Set(fasthttp.HeaderAccessControlAllowHeaders, allowHeaders)
}

// allow applies the per-client rate limit and writes a 429 when exceeded.
func (s *HTTPServer) allow(ctx *fasthttp.RequestCtx) bool {
	ip := ctx.RemoteIP().String()
	if s.limiter.Allow(ip) {
		return true
	}

	s.logger.Warn(ctx, "rate limited", "path", string(ctx.Path()), "client", ip)
	writeError(ctx, fasthttp.StatusTooManyRequests, common.ErrRateLimited.Error())
	return false
}
