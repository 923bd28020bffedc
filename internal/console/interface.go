package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Chashkapluy1/ai-browser-agent/internal/config"
	"github.com/Chashkapluy1/ai-browser-agent/internal/usecase"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		stopping: false,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\n⚠️  Interrupt received, stopping task...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")

	i.cancel()
	i.usecase.Agent.Stop()

	fmt.Println("👋 Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	command, argument, _ := strings.Cut(input, " ")

	switch command {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		return fmt.Errorf("exit")
	case "open":
		return i.openURL(strings.TrimSpace(argument))
	case "dom":
		return i.showDOM()
	case "text":
		return i.showText()
	case "url":
		fmt.Println(i.usecase.Browser.URL())

		return nil
	default:
		return i.executeTask(input)
	}
}

// openURL navigates the browser directly so the dom and text commands have
// a page to inspect without running the agent.
func (i *Interface) openURL(url string) error {
	if url == "" {
		return fmt.Errorf("usage: open <url>")
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	if err := i.usecase.Browser.Navigate(i.ctx, url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	fmt.Printf("Opened %s\n", url)

	return nil
}

func (i *Interface) showDOM() error {
	dom, err := i.usecase.Browser.SimplifiedDOM(i.ctx)
	if err != nil {
		return fmt.Errorf("simplified dom: %w", err)
	}

	fmt.Println(dom)

	return nil
}

func (i *Interface) showText() error {
	text, err := i.usecase.Browser.PageText(i.ctx)
	if err != nil {
		return fmt.Errorf("page text: %w", err)
	}

	fmt.Println(text)

	return nil
}

func (i *Interface) executeTask(taskDescription string) error {
	fmt.Printf("\n🤖 Starting task: %s\n", taskDescription)
	fmt.Println("───────────────────────────────────────────────────")

	task, err := i.usecase.Agent.Execute(i.ctx, taskDescription)
	if err != nil {
		fmt.Printf("\n❌ Task failed: %v\n", err)

		return nil
	}

	fmt.Println("\n───────────────────────────────────────────────────")

	if task.Status == "completed" {
		fmt.Printf("✅ Task completed successfully!\n\n")
		fmt.Printf("Result: %s\n", task.Result)
		fmt.Printf("Steps taken: %d\n", len(task.Steps))
	} else {
		fmt.Printf("❌ Task failed: %s\n", task.Error)
	}

	return nil
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════╗
║                                                       ║
║            🤖  AI Browser Agent  🌐                   ║
║                                                       ║
║   Autonomous web browsing powered by OpenAI models    ║
║                                                       ║
╚═══════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  help, h       - Show this help message
  exit, quit, q - Exit the application
  open <url>    - Open a URL in the managed browser
  dom           - Print the labeled interactive elements of the page
  text          - Print the visible text of the page
  url           - Print the current page URL

Anything else is treated as a task in natural language:
    - Find 3 Go developer jobs on hh.ru
    - Open news.ycombinator.com and summarize the top story

The agent will execute the task autonomously.
`
	fmt.Println(help)
}
