package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/dashboard"
	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/export"
	"github.com/CameronXie/order-desk/internal/ingest"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/orderview"
)

var (
	uploadDryRun bool

	exportFormat string
	exportIDs    []string
	exportOut    string

	dashboardTab    string
	dashboardSearch string
	dashboardFrom   string
	dashboardTo     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Normalise a Shopify order CSV and submit it",
	Args:  cobra.ExactArgs(1),
	RunE:  upload,
}

var exportCmd = &cobra.Command{
	Use:   "export VIEW",
	Short: "Export an order view as xlsx, pdf or a picklist",
	Args:  cobra.ExactArgs(1),
	RunE:  exportView,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard counts",
	Args:  cobra.NoArgs,
	RunE:  printDashboard,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "print the normalised rows without submitting them")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatXLSX), "xlsx, pdf, picklist or express")
	exportCmd.Flags().StringSliceVar(&exportIDs, "ids", nil, "order ids to export instead of the whole view")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "directory the file is written to")

	dashboardCmd.Flags().StringVar(&dashboardTab, "tab", string(dashboard.TabAll), "all, shipped, cancel or pending")
	dashboardCmd.Flags().StringVar(&dashboardSearch, "search", "", "style number, size or quantity")
	dashboardCmd.Flags().StringVar(&dashboardFrom, "from", "", "first order date, DD-MM-YYYY")
	dashboardCmd.Flags().StringVar(&dashboardTo, "to", "", "last order date, DD-MM-YYYY")
}

func upload(cmd *cobra.Command, args []string) error {
	if err := ingest.CheckFileName(args[0]); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	a, err := newApp(cmd.Context(), cfg, logger, notify.NewWriterNotifier(cmd.ErrOrStderr()), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if uploadDryRun {
		preview, err := a.ingest.Preview(f)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), preview)
	}

	rows, err := a.ingest.Load(f)
	if err != nil {
		return err
	}

	progress := func(p batch.Progress) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rsubmitting %d/%d (%d%%)", p.Completed, p.Total, p.Percentage())
		if p.Completed == p.Total {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	}

	report, err := a.ingest.Submit(cmd.Context(), rows, progress)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func exportView(cmd *cobra.Command, args []string) error {
	view, err := orderview.ParseView(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger, notify.NewWriterNotifier(cmd.ErrOrStderr()), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	orders, err := a.orders.List(cmd.Context(), view.ListKind())
	if err != nil {
		return err
	}

	file, err := a.export.Export(cmd.Context(), &export.Request{
		View:     view,
		Format:   export.Format(strings.ToLower(exportFormat)),
		Orders:   orders,
		Selected: exportIDs,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(exportOut, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func printDashboard(cmd *cobra.Command, _ []string) error {
	from, err := parseFlagDate(dashboardFrom, "from")
	if err != nil {
		return err
	}
	to, err := parseFlagDate(dashboardTo, "to")
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger, notify.NewWriterNotifier(cmd.ErrOrStderr()), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.dashboard.Snapshot(cmd.Context(), &dashboard.Filter{
		Search: dashboardSearch,
		From:   from,
		To:     to,
		Tab:    dashboard.ParseTab(dashboardTab),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), snapshot)
}

func parseFlagDate(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := domain.ParseOrderDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected DD-MM-YYYY", name, raw)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
