// Command conclave runs group conversations from a YAML configuration file.
// With -task it answers a single question and exits; without it, it drops
// into an interactive prompt.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/conclave-ai/conclave"
	"github.com/conclave-ai/conclave/config"
)

func main() {
	configPath := flag.String("config", "conclave.yaml", "path to the configuration file")
	task := flag.String("task", "", "run a single task and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *task); err != nil {
		fmt.Fprintln(os.Stderr, "conclave:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, task string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	c, err := conclave.FromConfig(cfg)
	if err != nil {
		return err
	}

	if task != "" {
		return ask(ctx, c, cfg, task)
	}
	return interactive(ctx, c, cfg)
}

func ask(ctx context.Context, c *conclave.Conclave, cfg *config.Config, task string) error {
	runCtx := ctx
	if cfg.Chat.TurnTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Chat.TurnTimeout)
		defer cancel()
	}

	answer, err := c.Ask(runCtx, task)
	if answer != "" {
		fmt.Println(answer)
	}
	return err
}

func interactive(ctx context.Context, c *conclave.Conclave, cfg *config.Config) error {
	fmt.Println("conclave interactive mode. Type a task, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := ask(ctx, c, cfg, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}
