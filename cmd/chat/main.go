package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jan-server/services/chat-ui/internal/config"
	"jan-server/services/chat-ui/internal/domain/session"
	"jan-server/services/chat-ui/internal/infrastructure/eventstream"
	"jan-server/services/chat-ui/internal/infrastructure/gatewayapi"
	"jan-server/services/chat-ui/internal/infrastructure/logger"
)

const defaultGatewayURL = "http://localhost:3000"

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal client for the chat gateway",
	Long: `chat talks to a running chat gateway: it streams answers from the
AI service deployment, shows tool steps as they run and keeps the
conversation history for follow-up questions.

Examples:
  chat repl
  chat ask "What can you do?"
  chat info --gateway http://localhost:3000
  chat theme dark`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(themeCmd)

	rootCmd.PersistentFlags().String("gateway", envOr("CHAT_GATEWAY_URL", defaultGatewayURL), "Chat gateway base URL")
	rootCmd.PersistentFlags().Bool("render", false, "Render finished answers as markdown")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level")
	rootCmd.PersistentFlags().Duration("timeout", 15*time.Second, "Timeout for non-streaming gateway calls")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.NewWithWriter(&config.Config{
		ServiceName: "chat-cli",
		Environment: "cli",
		LogLevel:    level,
		LogFormat:   "console",
	}, os.Stderr)
}

func gatewayURL(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("gateway")
	return strings.TrimRight(u, "/")
}

func newSession(cmd *cobra.Command, log zerolog.Logger) *session.Session {
	client := eventstream.NewClient(gatewayURL(cmd), log)
	return session.New(eventstream.NewGenerator(client), log)
}

func newAPIClient(cmd *cobra.Command, log zerolog.Logger) *gatewayapi.Client {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return gatewayapi.NewClient(gatewayURL(cmd), timeout, log)
}
