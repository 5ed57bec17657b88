// Command billingctl runs maintenance jobs against the billing store without
// going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rskenterprises/billing_backend/app"
	"github.com/rskenterprises/billing_backend/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "billingctl",
	Short:         "Maintenance jobs for the billing backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `billingctl reads the same environment as the API server (.env, STORE_DRIVER,
DB_*, REDIS_ADDRESS, GCS_BUCKET, ...) and runs one job against the store.`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp bootstraps the services for one command and closes them afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.Bootstrap(cmd.Context(), config.Load())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
