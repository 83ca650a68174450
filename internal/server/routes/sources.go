package routes

import (
	"context"
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v3"

	"github.com/partons-hub/partons/internal/config"
	"github.com/partons-hub/partons/internal/index"
	"github.com/partons-hub/partons/internal/server"
	"github.com/partons-hub/partons/internal/source"
)

// RegisterSourceRoutes 暴露 /-/sources 诊断接口，查询数据源、本地缓存与远端索引。
func RegisterSourceRoutes(app *fiber.App, registry *server.SourceRegistry) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/sources", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": encodeSources(registry.List()),
		})
	})

	app.Get("/-/sources/:source/sets", func(c fiber.Ctx) error {
		route, ok := registry.Lookup(c.Params("source"))
		if !ok {
			return renderSourceNotFound(c)
		}
		sets, err := route.Source.CachedSets()
		if err != nil {
			return err
		}
		if sets == nil {
			sets = []string{}
		}
		return c.JSON(fiber.Map{"source": route.Config.Name, "sets": sets})
	})

	// ?pattern= 按锚定正则过滤，必须唯一命中。
	app.Get("/-/sources/:source/index", func(c fiber.Ctx) error {
		route, ok := registry.Lookup(c.Params("source"))
		if !ok {
			return renderSourceNotFound(c)
		}
		pattern := c.Query("pattern")
		if _, err := regexp.Compile(pattern); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_pattern"})
		}
		idx, err := route.Source.Index(requestContext(c))
		if err != nil {
			return renderSourceError(c, err)
		}
		if pattern != "" {
			h, err := idx.Get(pattern)
			if err != nil {
				return renderSourceError(c, err)
			}
			return c.JSON(fiber.Map{"source": route.Config.Name, "sets": []index.Header{h}})
		}
		return c.JSON(fiber.Map{"source": route.Config.Name, "sets": idx.Headers()})
	})

	app.Get("/-/sources/:source/sets/:set/info", func(c fiber.Ctx) error {
		route, ok := registry.Lookup(c.Params("source"))
		if !ok {
			return renderSourceNotFound(c)
		}
		ctx := requestContext(c)
		set, err := route.Source.OpenSet(ctx, regexp.QuoteMeta(c.Params("set")))
		if err != nil {
			return renderSourceError(c, err)
		}
		info, err := set.Info(ctx)
		if err != nil {
			return renderSourceError(c, err)
		}
		return c.JSON(fiber.Map{
			"source": route.Config.Name,
			"header": set.Header(),
			"info":   info,
		})
	})
}

type sourcePayload struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Index    string          `json:"index"`
	Format   string          `json:"format"`
	Patterns config.Patterns `json:"patterns"`
	Cached   int             `json:"cached_sets"`
}

func encodeSources(routes []server.SourceRoute) []sourcePayload {
	result := make([]sourcePayload, 0, len(routes))
	for _, route := range routes {
		cfg := route.Source.Config()
		sets, _ := route.Source.CachedSets()
		result = append(result, sourcePayload{
			Name:     cfg.Name,
			URL:      cfg.URL,
			Index:    cfg.Index,
			Format:   route.Source.Format().String(),
			Patterns: cfg.Patterns,
			Cached:   len(sets),
		})
	}
	return result
}

func renderSourceNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "source_not_found"})
}

// renderSourceError 将拉取流水线的错误映射为稳定的错误码。
func renderSourceError(c fiber.Ctx, err error) error {
	var (
		status    *source.StatusError
		parseErr  *source.ParseError
		indexErr  *index.ParseError
		ambiguous *index.AmbiguousError
		notFound  *index.NotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "set_not_found"})
	case errors.As(err, &ambiguous):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "ambiguous_pattern", "matches": ambiguous.Count})
	case errors.As(err, &status):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "upstream_status": status.Code})
	case errors.As(err, &parseErr), errors.As(err, &indexErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "parse_error"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "upstream_timeout"})
	default:
		return err
	}
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
