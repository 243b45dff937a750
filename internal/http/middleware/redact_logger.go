package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safestudent/safe-student-backend/internal/sysutil"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are replaced by "[REDACTED]" in addition to Authorization,
	// Cookie and Set-Cookie. Matching is case-insensitive.
	MaskHeaders []string
	// QuietPaths (route patterns or raw paths) log successful requests at
	// debug level, e.g. probes hitting /health.
	QuietPaths []string
}

type redactRule struct {
	re   *regexp.Regexp
	with string
}

// redactRules run in order. UUIDs and tokens go before phone numbers so the
// loose phone pattern never sees their digit runs.
var redactRules = []redactRule{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`), "[REDACTED:token]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	// digits only, so hex never matches: "+84 912 345 678", "0912345678"
	{regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?\b(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{3,4}\b`), "[REDACTED:phone]"},
}

// redact scrubs identifiers, bearer tokens, emails and phone numbers from s.
func redact(s string) string {
	for _, r := range redactRules {
		if s == "" {
			break
		}
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

// RedactingLogger writes one structured access log line per request and
// installs the request-scoped logger (request_id, method, route) that
// handlers and services pick up with LoggerFrom or zerolog.Ctx.
//
// Bodies are never logged: they carry screenshots and parent contacts. The
// query string and header values pass through redact; masked headers are
// replaced entirely. Levels: info, warn for 4xx, error for 5xx or when a
// handler attached an error to the Gin context.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	quiet := make(map[string]struct{}, len(opts.QuietPaths))
	for _, p := range opts.QuietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		attachLogger(c, log.With().
			Str("request_id", sysutil.FirstNonEmpty(RequestIDFrom(c), c.GetHeader(requestIDHeader))).
			Str("method", c.Request.Method).
			Str("path", route).
			Logger())

		c.Next()

		status := c.Writer.Status()
		lg := LoggerFrom(c) // Auth may have added user_id
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 400:
			ev = lg.Warn()
		default:
			if _, ok := quiet[route]; ok {
				ev = lg.Debug()
			} else {
				ev = lg.Info()
			}
		}

		headers := zerolog.Dict()
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers.Str(k, "[REDACTED]")
				continue
			}
			headers.Str(k, redact(strings.Join(vv, ", ")))
		}

		ev.Str("query", redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Dict("headers", headers).
			Msg("http_request")
	}
}
