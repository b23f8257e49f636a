package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/observability"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	write := ErrorWriter(logger, metrics)
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = write(c, err)
			}
		}()
		return c.Next()
	}
}

// ErrorWriter renders errors as {"error":{code,message,details}} and halts the chain.
// The auth gate uses it as its responder so rejections share the envelope of handler errors.
func ErrorWriter(logger *zap.Logger, metrics *observability.Metrics) func(c *fiber.Ctx, err error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(fromFiberError(err))
		if metrics != nil {
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		}
		body := fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}
		if len(domainErr.Details) > 0 {
			body["details"] = domainErr.Details
		}
		if domainErr.HTTPStatus >= 500 {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("request_id", observability.RequestID(c)),
				zap.Error(domainErr),
			)
		}
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
	}
}

// fromFiberError keeps router errors such as 404 and 405 at their own status.
func fromFiberError(err error) error {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return err
	}
	code := "HTTP_ERROR"
	switch fiberErr.Code {
	case fiber.StatusNotFound:
		code = "ROUTE_NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	}
	return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
}
