package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wikirace/internal/api"
	"wikirace/internal/repository"
	"wikirace/internal/service"
	"wikirace/internal/storage"
	"wikirace/internal/utils"
	"wikirace/internal/wiki"
	"wikirace/pkg/config"
	"wikirace/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wikirace",
	Short: "Multiplayer race between two Wikipedia articles",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var validateCmd = &cobra.Command{
	Use:   "validate <start> <goal> [hops...]",
	Short: "Check that a path of article URLs is navigable on live Wikipedia",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runValidate,
}

var insecureDev bool

func main() {
	serveCmd.Flags().BoolVar(&insecureDev, "insecure-dev", false,
		"start without auth.jwt_secret, signing tokens with a random per-process secret")
	rootCmd.AddCommand(serveCmd, validateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newValidator(cfg *config.Config) *service.PathValidator {
	client := &http.Client{
		Timeout:       cfg.Wiki.Timeout,
		CheckRedirect: wiki.CheckRedirect,
	}
	fetcher := wiki.NewHTTPFetcher(client, cfg.Wiki.RequestDelay, cfg.Wiki.UserAgent)
	return service.NewPathValidator(wiki.NewLinkChecker(fetcher), cfg.Wiki.MaxHops)
}

// openDocumentStore 依配置選擇文件存儲，回傳的 close 函數負責釋放連線
func openDocumentStore(ctx context.Context, cfg *config.Config) (storage.DocumentStore, func() error, error) {
	switch cfg.Documents.Driver {
	case "mongo":
		store, err := storage.NewMongoDocumentStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return store.Close(context.Background()) }, nil
	case "postgres", "":
		db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewGormDocumentStore(db.DB)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown documents driver %q", cfg.Documents.Driver)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log)

	secret := cfg.Auth.JWTSecret
	if err := cfg.Auth.CheckSecret(); err != nil {
		if !insecureDev {
			return err
		}
		// 每次啟動都會換新，重啟後舊 token 失效
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("using a random jwt secret", "reason", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 房間狀態存放於 badger
	kv, err := storage.OpenBadger(storage.BadgerConfig{
		Path:     cfg.KV.Path,
		InMemory: cfg.KV.InMemory,
		Logger:   log.With("component", "badger"),
	})
	if err != nil {
		return fmt.Errorf("failed to open room store: %w", err)
	}
	defer kv.Close()

	// 進度與結果存放於文件存儲
	docs, closeDocs, err := openDocumentStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer closeDocs()

	repos := repository.NewRepositories(kv, docs)
	services := service.NewServices(repos, newValidator(cfg), service.RoomOptions{
		MinID:       cfg.Rooms.MinID,
		MaxID:       cfg.Rooms.MaxID,
		MaxAttempts: cfg.Rooms.MaxAttempts,
		Strict:      cfg.Rooms.Strict,
	}, log)
	tokens := utils.NewTokenManager(secret, cfg.Auth.TokenTTL)

	r := gin.Default()
	api.SetupRoutes(r, services, tokens, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", cfg.Server.Address, "documents", cfg.Documents.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log)

	start, goal, hops := args[0], args[1], args[2:]
	err = newValidator(cfg).ValidatePath(cmd.Context(), start, hops, goal)
	var invalid *service.PathInvalidError
	switch {
	case errors.As(err, &invalid):
		log.Warn("path is invalid", "from", invalid.From, "to", invalid.To)
		fmt.Fprintln(cmd.OutOrStdout(), invalid.Error())
		return err
	case err != nil:
		return err
	}

	log.Info("path is valid", "start", start, "goal", goal, "hops", len(hops))
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
