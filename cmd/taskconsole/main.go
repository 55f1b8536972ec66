package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/config"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/console"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("dotenv: %v", err)
	}

	base := os.Getenv("TASKFLOW_API")
	if base == "" {
		base = console.DefaultAPIBase
	}
	apiURL := flag.String("api", base, "task API base URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var themes *console.ThemeStore
	theme := console.ThemeLight
	if path, err := console.DefaultThemePath(); err != nil {
		log.Warnf("theme preference disabled: %v", err)
	} else {
		themes = console.NewThemeStore(path)
		if theme, err = themes.Load(); err != nil {
			log.Warnf("theme: %v", err)
		}
	}

	c := console.New(console.NewClient(*apiURL), console.NewQueryCache())
	sh := console.NewShell(c, console.NewRenderer(os.Stdout, theme), themes, theme)
	if err := sh.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("console: %v", err)
	}
}
