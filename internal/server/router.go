package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partons-hub/partons/internal/logging"
)

// AppOptions 控制 Fiber 应用的行为。
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *SourceRegistry
	ListenPort int
}

const (
	contextKeyRequestID = "_partons_request_id"
)

// NewApp 构建带请求 ID 与访问日志中间件的 Fiber 应用，调用方在返回的 app 上注册诊断路由。
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("source registry is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	return app, nil
}

// requestContextMiddleware 生成请求 ID，并在处理链返回后记录每个请求。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		started := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		fields := logging.RequestFields(reqID, c.Method(), c.Path(), status)
		fields["elapsed_ms"] = time.Since(started).Milliseconds()
		logger.WithFields(fields).Debug("request")
		return err
	}
}

// errorHandler 将未匹配路由与处理器错误渲染为 JSON。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := "internal_error"
			if fiberErr.Code == fiber.StatusNotFound {
				code = "not_found"
			} else if fiberErr.Code < fiber.StatusInternalServerError {
				code = "bad_request"
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": code})
		}

		logger.WithFields(logrus.Fields{
			"action":     "request",
			"request_id": RequestID(c),
			"path":       c.Path(),
		}).WithError(err).Error("handler_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
}

// RequestID 返回路由中间件保存的请求标识。
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
