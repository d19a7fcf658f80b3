package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Resource is the catalog area a request touches: the first path segment
// after /v1 ("materials", "pricelist", ...). Unversioned routes use their
// own first segment.
func Resource(c *gin.Context) string {
	p := c.FullPath()
	if p == "" {
		p = c.Request.URL.Path
	}
	p = strings.TrimPrefix(strings.TrimPrefix(p, "/"), "v1/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// ErrorHandler turns errors that handlers attached with c.Error into a
// generic 500. Handlers that already answered keep their response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("resource", Resource(c)).
			Str("route", c.FullPath()).
			Err(err.Err).
			Msg("unhandled error")

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}

// Recovery converts a panic into a 500. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("resource", Resource(c)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. Health probes and websocket sessions
// go to debug; rendered downloads carry the file name.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		resource := Resource(c)
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case resource == "health" || resource == "ws":
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		if cd := c.Writer.Header().Get("Content-Disposition"); cd != "" {
			if i := strings.Index(cd, `filename="`); i >= 0 {
				ev = ev.Str("file", strings.TrimSuffix(cd[i+len(`filename="`):], `"`))
			}
		}
		ev.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("resource", resource).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
