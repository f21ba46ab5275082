package api

import (
	"errors"
	"fmt"
	"net/http" // Import net/http for status codes

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/tracelog/pkg/log"
	"github.com/open-teleop/tracelog/services"
)

// LoggerHandler holds dependencies for logger API endpoints.
type LoggerHandler struct {
	loggingService services.LoggingService
	logger         *customlog.Logger
}

// NewLoggerHandler creates a new handler for logger endpoints.
func NewLoggerHandler(loggingService services.LoggingService, logger *customlog.Logger) *LoggerHandler {
	if loggingService == nil {
		panic("LoggingService cannot be nil in NewLoggerHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewLoggerHandler")
	}
	return &LoggerHandler{
		loggingService: loggingService,
		logger:         logger,
	}
}

// RegisterLoggerRoutes registers the logger API endpoints with the Fiber app.
func RegisterLoggerRoutes(app *fiber.App, loggingService services.LoggingService, logger *customlog.Logger) {
	h := NewLoggerHandler(loggingService, logger)

	apiGroup := app.Group("/api/v1")

	// GET the effective levels of a named logger
	apiGroup.Get("/loggers/:name", h.handleDescribeLogger)

	// POST an entry through a named logger
	apiGroup.Post("/loggers/:name/entries", h.handleWriteEntry)

	// GET what the repository's memory appender retained
	apiGroup.Get("/entries", h.handleRecentEntries)

	logger.Info("Registered logger API endpoints under /api/v1")
}

// requestLogger prefers the per-request logger installed by RequestLogger.
func (h *LoggerHandler) requestLogger(c *fiber.Ctx) *customlog.Logger {
	if l := LoggerFrom(c); l != nil {
		return l
	}
	return h.logger
}

// handleDescribeLogger handles GET /api/v1/loggers/:name.
func (h *LoggerHandler) handleDescribeLogger(c *fiber.Ctx) error {
	name := c.Params("name")
	h.requestLogger(c).DebugFormat("Describing logger {0}", name)
	return c.Status(http.StatusOK).JSON(h.loggingService.Describe(name))
}

// handleWriteEntry handles POST /api/v1/loggers/:name/entries.
func (h *LoggerHandler) handleWriteEntry(c *fiber.Ctx) error {
	reqLog := h.requestLogger(c)
	name := c.Params("name")

	var req EntryRequest
	if err := c.BodyParser(&req); err != nil {
		reqLog.WarnErr("Rejected log entry with unreadable body", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid request body: %v", err),
		})
	}

	level, err := customlog.ParseLevel(req.Level)
	if err != nil {
		reqLog.WarnFormat("Rejected log entry with level {0}", req.Level)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	target := h.loggingService.Manager().GetLogger(name)
	written := target.Enabled(level)
	switch {
	case len(req.Args) > 0:
		if _, err := customlog.Format(req.Message, req.Args...); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		target.LogFormat(level, req.Message, req.Args...)
	case req.Error != "":
		target.Log(level, req.Message, errors.New(req.Error))
	default:
		target.Log(level, req.Message, nil)
	}

	return c.Status(http.StatusAccepted).JSON(EntryResponse{
		Logger:  name,
		Level:   level.String(),
		Written: written,
	})
}

// handleRecentEntries handles GET /api/v1/entries?appender=name.
func (h *LoggerHandler) handleRecentEntries(c *fiber.Ctx) error {
	appender := c.Query("appender")
	entries, err := h.loggingService.RecentEntries(appender)
	if err != nil {
		h.requestLogger(c).WarnErr("Failed to read recent entries", err)
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(http.StatusOK).JSON(EntriesResponse{
		Appender: appender,
		Entries:  entries,
	})
}
