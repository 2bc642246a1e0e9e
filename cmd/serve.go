package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uday-t-s/car-brand-sales/internal/dashboard"
)

var (
	serveAddr     string
	serveMaxMB    int
	serveSessions int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload-and-chart web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		sc := *c
		f := cmd.Flags()
		if f.Changed("addr") {
			sc.ListenAddr = serveAddr
		}
		if f.Changed("max-upload-mb") && serveMaxMB > 0 {
			sc.MaxUploadMB = serveMaxMB
		}
		if f.Changed("max-sessions") && serveSessions > 0 {
			sc.MaxSessions = serveSessions
		}

		srv, err := dashboard.New(&sc, logger.Named("dashboard"))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.Printf("🚗 Dashboard on http://%s\n", displayAddr(sc.ListenAddr))
		return srv.ListenAndServe(ctx)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().IntVar(&serveMaxMB, "max-upload-mb", 0, "maximum upload size in MB (overrides max_upload_mb)")
	serveCmd.Flags().IntVar(&serveSessions, "max-sessions", 0, "uploads kept in memory (overrides max_sessions)")
}
