package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/hgtmatch/internal/util"
	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/handler"
	"github.com/yumyai/hgtmatch/pkg/middle"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse stored runs over HTTP",
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("db", cmd.Flags().Lookup("db"))
		viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB == "" {
			return errors.New("missing result database (--db)")
		}
		if !util.FileExists(cfg.DB) {
			return fmt.Errorf("result database %s not found", cfg.DB)
		}

		results, err := db.OpenResultDB(cfg.DB)
		if err != nil {
			return err
		}
		defer results.Close()
		if err := results.Init(cmd.Context()); err != nil {
			return err
		}

		level := zapcore.InfoLevel
		if cfg.Verbose {
			level = zapcore.DebugLevel
		}
		reqLogger, err := middle.CreateMiddlewareLogger(level)
		if err != nil {
			return err
		}
		defer reqLogger.Sync()

		dbctx := &handler.DBContext{Results: results}
		mux := handler.NewRouter(dbctx)
		srv := &http.Server{
			Addr: cfg.Listen,
			Handler: middle.Chain(mux,
				middle.RequestIDMiddleware(reqLogger),
				middle.LoggingMiddleware(reqLogger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cmd.Context()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("Server starting", zap.String("listen", cfg.Listen), zap.String("db", cfg.DB))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("db", "", "sqlite result database written by run")
	serveCmd.Flags().String("listen", "0.0.0.0:8080", "listen address")
}
