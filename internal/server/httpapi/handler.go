package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/server/sessions"
	"github.com/valyala/fasthttp"
)

// maxJSONSafeBits is the widest integer a JavaScript number holds exactly.
const maxJSONSafeBits = 53

var errBadJSON = fmt.Errorf("%w: invalid JSON body", common.ErrorValidation)

// Handler routes a request. It is exported for use with custom fasthttp
// servers and tests.
func (s *HTTPServer) Handler(ctx *fasthttp.RequestCtx) {
	s.applyCORS(ctx)

	if ctx.IsOptions() {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}

	if !s.allow(ctx) {
		return
	}

	path := string(ctx.Path())
	method := string(ctx.Method())

	var handle func(context.Context, *fasthttp.RequestCtx)
	wantMethod := fasthttp.MethodPost
	switch path {
	case "/register":
		handle = s.register
	case "/login/start":
		handle = s.loginStart
	case "/login/finish":
		handle = s.loginFinish
	case "/protected":
		handle, wantMethod = s.protected, fasthttp.MethodGet
	case "/logout":
		handle = s.logout
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not Found")
		return
	}

	if method != wantMethod {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, wantMethod+", OPTIONS")
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	s.logger.Debug(ctx, "request", "method", method, "path", path)
	handle(sessions.WithToken(ctx, s.token(ctx)), ctx)
}

// token returns the session token from the cookie or, failing that, from an
// Authorization: Bearer header.
func (s *HTTPServer) token(ctx *fasthttp.RequestCtx) string {
	if c := ctx.Request.Header.Cookie(s.opts.CookieName); len(c) > 0 {
		return string(c)
	}
	auth := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	if scheme, tok, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	return ""
}

// numericString accepts a JSON string or a JSON number and keeps its text.
// Parsing is left to the service so both forms share one validation path.
type numericString string

func (n *numericString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericString(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*n = numericString(b)
	return nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type proofRequest struct {
	Username string        `json:"username"`
	A        numericString `json:"a"`
	Y        numericString `json:"y"`
}

func decode(ctx *fasthttp.RequestCtx, v any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errBadJSON
	}
	return nil
}

func (s *HTTPServer) register(c context.Context, ctx *fasthttp.RequestCtx) {
	var req credentialsRequest
	if err := decode(ctx, &req); err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	info, err := s.auth.Register(c, req.Username, req.Password)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"message": fmt.Sprintf("User '%s' registered", req.Username),
		"p":       number(info.P),
		"g":       number(info.G),
	})
}

func (s *HTTPServer) loginStart(c context.Context, ctx *fasthttp.RequestCtx) {
	var req usernameRequest
	if err := decode(ctx, &req); err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	ch, err := s.auth.BeginLogin(c, req.Username)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"p": number(ch.P),
		"g": number(ch.G),
		"h": number(ch.H),
		"e": number(ch.E),
	})
}

func (s *HTTPServer) loginFinish(c context.Context, ctx *fasthttp.RequestCtx) {
	var req proofRequest
	if err := decode(ctx, &req); err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	res, err := s.auth.FinishLogin(c, req.Username, string(req.A), string(req.Y))
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	s.setSessionCookie(ctx, res.Token)
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"message":      "Login successful!",
		"username":     res.Username,
		"access_token": res.Token,
	})
}

func (s *HTTPServer) protected(c context.Context, ctx *fasthttp.RequestCtx) {
	username, err := s.auth.CheckAuthenticated(c)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"message":  fmt.Sprintf("You are logged in as %s!", username),
		"username": username,
	})
}

func (s *HTTPServer) logout(c context.Context, ctx *fasthttp.RequestCtx) {
	_ = s.auth.Logout(c)
	s.clearSessionCookie(ctx)
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"message": "Logout successful!"})
}

func (s *HTTPServer) setSessionCookie(ctx *fasthttp.RequestCtx, token string) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(s.opts.CookieName)
	c.SetValue(token)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(s.opts.CookieSecure)
	if s.opts.CookieSecure {
		// cross-site browser clients only send Secure cookies with SameSite=None
		c.SetSameSite(fasthttp.CookieSameSiteNoneMode)
	} else {
		c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	}
	if s.opts.SessionValidity > 0 {
		c.SetMaxAge(int(s.opts.SessionValidity.Seconds()))
	}
	ctx.Response.Header.SetCookie(c)
}

func (s *HTTPServer) clearSessionCookie(ctx *fasthttp.RequestCtx) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(s.opts.CookieName)
	c.SetValue("")
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(s.opts.CookieSecure)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}

// number renders n as a JSON number when a browser can hold it exactly and as
// a decimal string otherwise.
func number(n *big.Int) any {
	if n.BitLen() <= maxJSONSafeBits {
		return json.Number(n.String())
	}
	return n.String()
}

// publicMessages keeps the wording browser clients already display.
var publicMessages = []struct {
	err error
	msg string
}{
	{common.ErrEmptyInput, "Empty username or password"},
	{common.ErrUsernameTaken, "User already exists"},
	{common.ErrUserNotFound, "User does not exist"},
	{common.ErrNoChallengePending, "No challenge for user"},
	{common.ErrChallengeExpired, "Challenge expired"},
	{common.ErrMalformedNumber, "Malformed number"},
	{common.ErrVerificationFailed, "Verification failed"},
	{common.ErrNotAuthenticated, "Not authenticated"},
	{errBadJSON, "Invalid JSON body"},
}

func (s *HTTPServer) writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	msg := err.Error()
	for _, pm := range publicMessages {
		if errors.Is(err, pm.err) {
			msg = pm.msg
			break
		}
	}

	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorAlreadyExists):
		writeError(ctx, fasthttp.StatusBadRequest, msg)
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(ctx, fasthttp.StatusUnauthorized, msg)
	default:
		s.logger.Error(ctx, "request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal error")
	}
}

func writeError(ctx *fasthttp.RequestCtx, code int, msg string) {
	writeJSON(ctx, code, map[string]string{"error": msg})
}

func writeJSON(ctx *fasthttp.RequestCtx, code int, v any) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}
