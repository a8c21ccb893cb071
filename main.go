package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/km-arc/go-injector/app"
	foundation "github.com/km-arc/go-injector/framework/app"
)

func main() {
	fs := pflag.NewFlagSet("injector", pflag.ExitOnError)
	envFiles := fs.StringSlice("env-file", []string{".env"}, "env files to load, in order")
	port := fs.String("port", "", "listen port, overrides APP_PORT")
	vowel := fs.String("vowel", "E", "default vowel for /sound (E or U)")
	_ = fs.Parse(os.Args[1:])

	defaultVowel, err := app.ParseVowel(*vowel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *port != "" {
		if err := os.Setenv("APP_PORT", *port); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	application, err := foundation.New(*envFiles...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := application.Register(&app.SoundServiceProvider{
		App:     application,
		Default: defaultVowel,
	}); err != nil {
		application.Log().Error("register", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Log().Error("server error", "error", err)
		os.Exit(1)
	}
}
