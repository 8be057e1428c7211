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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voxdrop/internal/api"
	"voxdrop/internal/config"
	"voxdrop/internal/logger"
	"voxdrop/internal/storage"
	"voxdrop/internal/stt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port      string
		debug     bool
		uploadDir string
	)

	cmd := &cobra.Command{
		Use:           "voxdrop",
		Short:         "Upload a recording, transcribe it, and expose the text as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
				return err
			}

			// Flags win over the environment.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if cmd.Flags().Changed("upload-dir") {
				cfg.UploadDir = uploadDir
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "4040", "HTTP listen port (env PORT)")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose logging and gin debug mode (env DEBUG)")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "./uploads", "directory for uploaded audio (env UPLOAD_DIR)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return err
	}
	defer log.Sync() //nolint:errcheck

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	audio := storage.NewAudioStore(cfg.UploadDir)
	if err := audio.EnsureDir(); err != nil {
		log.Error("failed to prepare upload directory", zap.String("dir", cfg.UploadDir), zap.Error(err))
		return err
	}

	// The transcription backend is created once and shared by all requests.
	provider, err := stt.CreateProvider(ctx, cfg, log)
	if err != nil {
		log.Error("failed to create STT provider", zap.Error(err))
		return err
	}
	log.Info("STT provider initialized", zap.String("provider", provider.Name()))

	handler := api.NewHandler(storage.NewState(), audio, provider, log)
	router, err := api.NewRouter(handler, log)
	if err != nil {
		log.Error("failed to build router", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("voxdrop running",
			zap.String("addr", srv.Addr),
			zap.String("upload_dir", audio.Dir()),
			zap.Bool("debug", cfg.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}
