package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"jan-server/services/chat-ui/internal/domain/session"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the deployment.

Ctrl-C stops the answer being streamed. Commands:
  /new   start a new chat
  /quit  exit`,
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	render, _ := cmd.Flags().GetBool("render")

	sess := newSession(cmd, log)
	p := newPrinter(cmd.OutOrStdout())
	unsubscribe := sess.Subscribe(p.update)
	defer unsubscribe()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
				if !sess.Abort() {
					fmt.Fprintln(cmd.ErrOrStderr(), "\n(use /quit to exit)")
				}
			}
		}
	}()

	return repl(ctx, sess, p, cmd.InOrStdin(), cmd.OutOrStdout(), render)
}

func repl(ctx context.Context, sess *session.Session, p *printer, in io.Reader, out io.Writer, render bool) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			sess.NewChat()
			fmt.Fprintln(out, "(new chat)")
			continue
		}

		p.begin()
		err := sess.Submit(ctx, line)
		if msgs := sess.Messages(); len(msgs) > 0 {
			p.finish(msgs[0], render)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
