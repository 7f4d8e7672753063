package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger()
		config := loadConfig(logger)

		logger.Info("starting the grant-matcher api", zap.String("version", version))

		rt, err := setup(ctx, config, logger)
		if err != nil {
			logger.Fatal("preparing the matcher", zap.Error(err))
		}
		defer rt.Close()

		app := server.New(rt.service, rt.metrics, logger)
		if err := server.Run(ctx, app, config.Server.Addr, logger); err != nil {
			rt.Close()
			logger.Fatal("http server stopped", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
