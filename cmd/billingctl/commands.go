package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rskenterprises/billing_backend/app"
	"github.com/rskenterprises/billing_backend/models"
	"github.com/rskenterprises/billing_backend/models/reports"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-duplicates",
	Short: "Remove customers that share a phone number, keeping the first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			removed, err := a.Services.Customers.CleanupDuplicates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate customers\n", removed)
			return nil
		})
	},
}

var nextNumberCmd = &cobra.Command{
	Use:   "next-invoice-number",
	Short: "Print the next invoice number",
	Example: `  billingctl next-invoice-number
  billingctl next-invoice-number --scheme suggestion`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		scheme, _ := cmd.Flags().GetString("scheme")
		return withApp(cmd, func(a *app.App) error {
			out := cmd.OutOrStdout()
			switch scheme {
			case "default":
				fmt.Fprintln(out, a.Services.Invoices.DefaultNextNumber(cmd.Context()))
			case "suggestion":
				s, err := a.Services.Invoices.SuggestNextNumber(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (financial year %s, last %s)\n", s.Next, s.FinancialYear.Display, s.Last)
			default:
				return fmt.Errorf("unknown scheme %q (want default or suggestion)", scheme)
			}
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export every collection as JSON",
	Example: `  billingctl backup --out backup.json
  billingctl backup --upload`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		upload, _ := cmd.Flags().GetBool("upload")
		outPath, _ := cmd.Flags().GetString("out")
		return withApp(cmd, func(a *app.App) error {
			b, err := a.Services.Backup.Export(cmd.Context())
			if err != nil {
				return err
			}
			if upload {
				loc, err := a.Services.Backup.Upload(cmd.Context(), b)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Uploaded to", loc)
				return nil
			}
			raw, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
				return err
			}
			return os.WriteFile(outPath, raw, 0o600)
		})
	},
}

var emptyBinCmd = &cobra.Command{
	Use:   "empty-recycle-bin",
	Short: "Permanently delete everything in the recycle bin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		confirm, _ := cmd.Flags().GetString("confirm")
		if !utils.IsConfirmed(confirm, models.ConfirmDelete) {
			return fmt.Errorf("pass --confirm %s to empty the recycle bin", models.ConfirmDelete)
		}
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Services.RecycleBin.Empty(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d items\n", n)
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the invoice register workbook",
	Example: `  billingctl report --from 2024-04-01 --to 2025-03-31 --out register.xlsx`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			outPath = fmt.Sprintf("invoices-%s.xlsx", time.Now().Format(utils.DateLayout))
		}
		return withApp(cmd, func(a *app.App) error {
			invoices, err := a.Services.Invoices.List(cmd.Context(), models.InvoiceFilter{From: from, To: to})
			if err != nil {
				return err
			}
			f, err := reports.InvoiceRegister(invoices, reports.RegisterTitle(from, to, time.Now()))
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d invoices to %s\n", len(invoices), outPath)
			return nil
		})
	},
}

func init() {
	nextNumberCmd.Flags().String("scheme", "default", "numbering scheme: default (NNN/YY) or suggestion (financial year)")
	backupCmd.Flags().Bool("upload", false, "upload to GCS_BUCKET instead of writing locally")
	backupCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
	emptyBinCmd.Flags().String("confirm", "", "must be DELETE")
	reportCmd.Flags().String("from", "", "first invoice date (YYYY-MM-DD)")
	reportCmd.Flags().String("to", "", "last invoice date (YYYY-MM-DD)")
	reportCmd.Flags().StringP("out", "o", "", "output .xlsx path")

	rootCmd.AddCommand(cleanupCmd, nextNumberCmd, backupCmd, emptyBinCmd, reportCmd)
}
