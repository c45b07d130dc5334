package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long:  `Stream the answer to one question and exit. Ctrl-C stops the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	render, _ := cmd.Flags().GetBool("render")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := newSession(cmd, log)
	p := newPrinter(cmd.OutOrStdout())
	unsubscribe := sess.Subscribe(p.update)
	defer unsubscribe()

	p.begin()
	err := sess.Submit(ctx, strings.Join(args, " "))
	if msgs := sess.Messages(); len(msgs) > 0 {
		p.finish(msgs[0], render)
	}
	return err
}
