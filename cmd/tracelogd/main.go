package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/open-teleop/tracelog/pkg/api"
	"github.com/open-teleop/tracelog/pkg/config"
	customlog "github.com/open-teleop/tracelog/pkg/log"
	"github.com/open-teleop/tracelog/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracelogd",
		Short: "Leveled logging daemon",
		Long:  "tracelogd serves the logging facade over HTTP: describe loggers, write entries and read recent ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			port, _ := cmd.Flags().GetInt("port")
			return serve(configPath, port)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().String("config", "", "path to the daemon configuration file")
	rootCmd.Flags().Int("port", 0, "HTTP port (overrides server.http_port)")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Check a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: backend %s, level %s, %d listener(s), %d source(s)\n",
				args[0], cfg.Logging.Backend, cfg.Logging.Level,
				len(cfg.Logging.Trace.Listeners), len(cfg.Logging.Trace.Sources))
			return nil
		},
	}
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func serve(configPath string, port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.HTTPPort = port
	}

	loggingService, err := services.NewLoggingService(cfg.Logging)
	if err != nil {
		return err
	}
	defer loggingService.Close()

	manager := loggingService.Manager()
	logger := manager.GetLogger("tracelogd")

	app := fiber.New(fiber.Config{
		AppName:               "tracelogd",
		ErrorHandler:          customErrorHandler(logger),
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(recover.New())
	app.Use(api.RequestLogger(manager))

	// Set up basic routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "tracelogd",
			"backend": loggingService.Config().Backend,
		})
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api.RegisterLoggerRoutes(app, loggingService, manager.GetLogger("api"))

	addr := ":" + strconv.Itoa(cfg.Server.HTTPPort)
	serverErr := make(chan error, 1)
	go func() {
		logger.InfoFormat("Server starting on {0}", addr)
		serverErr <- app.Listen(addr)
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			logger.FatalErr("Failed to start server", err)
			return err
		}
		return nil
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.ErrorErr("Server forced to shutdown", err)
		return err
	}

	logger.Info("Server exited properly")
	return nil
}

// customErrorHandler renders errors as JSON and logs server-side failures.
func customErrorHandler(logger *customlog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Default 500 status code
		code := fiber.StatusInternalServerError

		// Check if it's a Fiber error
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.ErrorErr(c.Method()+" "+c.Path(), err)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
