package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"

	appx "github.com/tanpawarit/driftdesk-agent/agent/app"
	sessionx "github.com/tanpawarit/driftdesk-agent/agent/session"
	_ "github.com/tanpawarit/driftdesk-agent/pkg/logger/autoload"
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := appx.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	app, err := appx.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close agent")
		}
	}()

	fmt.Println("DriftDesk assistant. Type 'exit' or 'quit' to leave.")
	repl(ctx, app.Session, os.Stdin, os.Stdout)
}

func repl(ctx context.Context, sess *sessionx.Session, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			return
		}

		reply, err := sess.HandleMessage(ctx, line)
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(out, "Assistant (error): %v\n", err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		fmt.Fprintf(out, "Assistant (%s): %s\n", reply.Route, reply.Text)
	}
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	return false
}
