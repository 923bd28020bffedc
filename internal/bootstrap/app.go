package bootstrap

import (
	"time"

	"github.com/Chashkapluy1/ai-browser-agent/internal/ai"
	"github.com/Chashkapluy1/ai-browser-agent/internal/browser"
	"github.com/Chashkapluy1/ai-browser-agent/internal/config"
	"github.com/Chashkapluy1/ai-browser-agent/internal/console"
	"github.com/Chashkapluy1/ai-browser-agent/internal/ports"
	"github.com/Chashkapluy1/ai-browser-agent/internal/tools"
	"github.com/Chashkapluy1/ai-browser-agent/internal/usecase"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager))),
			fx.Annotate(ai.NewClient, fx.As(new(ports.AIClient))),
			fx.Annotate(tools.NewBrowserRegistry, fx.As(new(ports.ToolRegistry))),

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}
