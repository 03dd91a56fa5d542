package telegram

import (
	"github.com/m3rciful/demobot/core/metrics"
	"github.com/m3rciful/demobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// DefaultMiddlewares builds the shared chain. Order matters: the logger opens
// the update span first, metrics sees every update and recover sits closest
// to the handlers so a panic still flows back through the other two.
func DefaultMiddlewares(col *metrics.Collectors) []Middleware {
	return []Middleware{
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.Metrics(col)},
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}
}
