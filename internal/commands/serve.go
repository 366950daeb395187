package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API and keep the timer ticking",
	Long: `Run a local HTTP API for the timer, tasks, sessions, stats and calendar.
Prometheus metrics are served on /metrics. Stop with Ctrl+C.`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		svc, err := openFocus()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("🍅 tomate API on http://%s (metrics on /metrics)\n", addr)
		srv := web.NewServer(svc, prometheus.NewRegistry())
		if err := srv.Run(ctx, addr); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8425)")
}
