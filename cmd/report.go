package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/audit"
	"folio/internal/logger"
	"folio/internal/reports"
)

var (
	reportType     string
	reportFormat   string
	reportMonth    string
	reportCustomer string
	reportOut      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build reports",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a report as CSV or XLSX",
	Long: `Export the monthly, customer or outstanding report to a file. The monthly
report covers the calendar month given by --month (YYYY-MM, current month
when empty). The customer report requires --customer.`,
	Example: `  # Outstanding balances as a spreadsheet
  folio report export --type outstanding --out outstanding.xlsx

  # October documents as CSV
  folio report export --type monthly --month 2026-10 --format csv --out oct.csv`,
	Args: cobra.NoArgs,
	RunE: runReportExport,
}

func init() {
	reportExportCmd.Flags().StringVarP(&reportType, "type", "t", string(reports.Monthly), "monthly, customer or outstanding")
	reportExportCmd.Flags().StringVarP(&reportFormat, "format", "f", string(reports.FormatXLSX), "csv or xlsx")
	reportExportCmd.Flags().StringVar(&reportMonth, "month", "", "month for the monthly report (YYYY-MM)")
	reportExportCmd.Flags().StringVar(&reportCustomer, "customer", "", "customer id for the customer report")
	reportExportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (defaults to the report's file name)")

	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportExport(cmd *cobra.Command, args []string) error {
	format, err := reports.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := reports.NewService(db, audit.New(db, nil))
	exp, err := svc.Export(cmd.Context(), cliActor, reports.Params{
		Type:       reports.Type(reportType),
		Month:      reportMonth,
		CustomerID: reportCustomer,
	}, format)
	if err != nil {
		return err
	}

	out := reportOut
	if out == "" {
		out = exp.Filename
	}
	if err := os.WriteFile(out, exp.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log := logger.WithComponent("report")
	log.Info().
		Str("type", reportType).
		Int("rows", exp.Rows).
		Str("file", out).
		Msg("Report exported")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", exp.Rows, out)
	return nil
}
