package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	customlog "github.com/open-teleop/tracelog/pkg/log"
)

const (
	// RequestLoggerName is the logger the request middleware writes to.
	RequestLoggerName = "http"

	// requestPrefixTemplate renders entries as "{<request id>}-<message>".
	requestPrefixTemplate = "{{{0}}}-{1}"

	localsLoggerKey = "tracelog.logger"
)

// RequestLogger returns middleware that gives every request its own logger,
// prefixed with the request id, and wraps the rest of the chain in a scope.
// The id is taken from X-Request-ID or generated, and echoed in the response.
func RequestLogger(factory customlog.Factory) fiber.Handler {
	base := factory.GetLogger(RequestLoggerName)

	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)

		reqLog, err := base.WithPrefix(id, requestPrefixTemplate)
		if err != nil {
			return err
		}
		c.Locals(localsLoggerKey, reqLog)

		label := c.Method() + " " + c.Path()
		scope := customlog.MustEnter(reqLog, label)
		defer scope.Leave()

		err = c.Next()
		if err != nil {
			reqLog.WarnErr(label+" failed", err)
		} else {
			reqLog.DebugFormat("{0} -> {1}", label, c.Response().StatusCode())
		}
		return err
	}
}

// LoggerFrom returns the request logger installed by RequestLogger, or nil
// outside of it.
func LoggerFrom(c *fiber.Ctx) *customlog.Logger {
	l, _ := c.Locals(localsLoggerKey).(*customlog.Logger)
	return l
}
