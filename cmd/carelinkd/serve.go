package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink"
	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/internal/metrics"
	httpAdapter "github.com/carelink/carelink/pkg/adapters/http"
	"github.com/carelink/carelink/pkg/adapters/memory"
	"github.com/carelink/carelink/pkg/adapters/postgres"
	redisAdapter "github.com/carelink/carelink/pkg/adapters/redis"
	"github.com/carelink/carelink/pkg/middleware"
	"github.com/carelink/carelink/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatch HTTP server",
	Long: `Starts the campaign engine behind the JSON dispatch API. Without a
Postgres DSN everything is held in memory, which is only useful for local
experiments; pass --postgres for durable conversations and requests.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Serve error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", envOr("CARELINK_ADDR", ":8080"), "Address to listen on")
	serveCmd.Flags().String("postgres", envOr("CARELINK_POSTGRES_URL", ""), "Postgres DSN for durable storage")
	serveCmd.Flags().String("redis", envOr("CARELINK_REDIS_ADDR", ""), "Redis address for cross-replica conversation locking")
	serveCmd.Flags().String("language", envOr("CARELINK_DEFAULT_LANGUAGE", "en"), "Default prompt language")
	serveCmd.Flags().Bool("mask-pii", false, "Mask phone numbers and email addresses in the journal")
}

func runServe(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("campaigns")
	level, _ := cmd.Flags().GetString("log-level")
	addr, _ := cmd.Flags().GetString("addr")
	dsn, _ := cmd.Flags().GetString("postgres")
	redisAddr, _ := cmd.Flags().GetString("redis")
	language, _ := cmd.Flags().GetString("language")

	logger := logging.NewJSON(logging.ParseLevel(level))
	ctx := context.Background()

	promReg := prometheus.NewRegistry()
	opts := []carelink.Option{
		carelink.WithLogger(logger),
		carelink.WithDefaultLanguage(language),
		carelink.WithHooks(metrics.New(promReg).Hooks()),
	}

	var messages ports.MessageStore = memory.NewMessageStore()
	if dsn != "" {
		db, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		messages = postgres.NewMessageStore(db)
		opts = append(opts,
			carelink.WithConversationStore(postgres.NewConversationStore(db)),
			carelink.WithDraftStore(postgres.NewDraftStore(db)),
			carelink.WithRequestStore(postgres.NewRequestStore(db)),
			carelink.WithRequestTypeSource(postgres.NewRequestTypeSource(db)),
		)
	}
	if maskPII, _ := cmd.Flags().GetBool("mask-pii"); maskPII {
		messages = middleware.ChainMessages(messages, middleware.NewPIIMasking(middleware.DefaultPIIPatterns))
	}
	opts = append(opts, carelink.WithMessageStore(messages))

	if redisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: redisAddr})
		defer client.Close()
		opts = append(opts, carelink.WithDistributedLocker(redisAdapter.NewLocker(client, "carelink:lock:")))
	}

	eng, err := carelink.New(ctx, dir, opts...)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.Handle("/", httpAdapter.NewServer(eng.Dispatcher(), httpAdapter.WithLogger(logger)).Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"campaigns", eng.Campaigns(),
			"durable", dsn != "",
		)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return err
			}
		}
		logger.Info("server stopped")
	}
	return nil
}
