package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lawyrs/counsel"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "counsel",
		Short:        "Legal orchestration pipeline",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd(), newQueryCmd())
	return cmd
}

func newRuntime(ctx context.Context, logLevel string) (*counsel.Runtime, *mylog.Logger, error) {
	// Optional; env vars win over .env contents.
	_ = godotenv.Load()

	logConf := config.NewLogConfig()
	if logLevel != "" {
		logConf.LogLevel = logLevel
	}
	logger := mylog.NewLogger(logConf.LogLevel, logConf.LogHandler)

	opts := []counsel.Option{counsel.WithLogger(logger)}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		opts = append(opts, counsel.WithOpenAIAPIKey(key))
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		opts = append(opts, counsel.WithAnthropicAPIKey(key))
	}

	runtime, err := counsel.NewRuntime(ctx, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create runtime")
	}

	return runtime, logger, nil
}

func newServeCmd() *cobra.Command {
	params := &struct {
		Port     int
		LogLevel string
	}{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runtime, logger, err := newRuntime(ctx, params.LogLevel)
			if err != nil {
				return err
			}
			defer runtime.Close()

			port := params.Port
			if port == 0 {
				port = runtime.ServerConfig().Port
			}

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", port),
				Handler: server.New(logger, runtime).Handler(),
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", mylog.Err(err))
				}
			}()

			logger.Info("server started", "port", port)
			defer logger.Info("server stopped")

			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "server failed")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&params.Port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&params.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	return cmd
}

func newQueryCmd() *cobra.Command {
	params := &struct {
		SessionID    string
		Jurisdiction string
		Agent        string
		LogLevel     string
	}{}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one query through the pipeline and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runtime, _, err := newRuntime(ctx, params.LogLevel)
			if err != nil {
				return err
			}
			defer runtime.Close()

			resp, err := runtime.Submit(ctx, orchestrator.Request{
				Query:        args[0],
				SessionID:    params.SessionID,
				Jurisdiction: params.Jurisdiction,
				AgentType:    params.Agent,
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&params.SessionID, "session", "s", "", "session id (new session when empty)")
	cmd.Flags().StringVarP(&params.Jurisdiction, "jurisdiction", "j", "", "jurisdiction override (kansas|missouri)")
	cmd.Flags().StringVarP(&params.Agent, "agent", "a", "", "pin a specific agent (researcher|drafter|analyst|strategist)")
	cmd.Flags().StringVar(&params.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	return cmd
}
