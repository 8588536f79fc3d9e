package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vpnda/bling-margin/pkg/models"
)

// periodFlags binds --month and --year, defaulting to the current month.
func periodFlags(cmd *cobra.Command) *models.Period {
	now := time.Now()
	p := &models.Period{}
	cmd.Flags().IntVarP(&p.Month, "month", "m", int(now.Month()), "Month (1-12)")
	cmd.Flags().IntVarP(&p.Year, "year", "y", now.Year(), "Year")
	return p
}

func parsePeriodArgs(args []string) (models.Period, error) {
	if len(args) != 2 {
		return models.Period{}, fmt.Errorf("expected <month> <year>")
	}
	month, err := strconv.Atoi(args[0])
	if err != nil {
		return models.Period{}, fmt.Errorf("invalid month %q", args[0])
	}
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return models.Period{}, fmt.Errorf("invalid year %q", args[1])
	}
	p := models.Period{Month: month, Year: year}
	return p, p.Validate()
}

// withApp builds the app for a single command run.
func withApp(fn func(ctx context.Context, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a)
	}
}

func newBillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "List the paid bills of a month across connected accounts",
	}
	period := periodFlags(cmd)
	cmd.RunE = withApp(func(ctx context.Context, a *app) error {
		return a.printBills(ctx, os.Stdout, *period)
	})
	return cmd
}

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the products sold in a month, consolidated across accounts",
	}
	period := periodFlags(cmd)
	cmd.RunE = withApp(func(ctx context.Context, a *app) error {
		return a.printProducts(ctx, os.Stdout, *period)
	})
	return cmd
}

func newCalculateCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute and store the contribution margin of a month",
		Long: `Fetch the month from every connected Bling account, compute the contribution
margin per product with the saved unit costs, tax rate and bill categories,
and store the result.`,
	}
	period := periodFlags(cmd)
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also export the result as CSV to this file or directory ('-' for stdout)")
	cmd.RunE = withApp(func(ctx context.Context, a *app) error {
		if csvPath == "-" {
			report, err := a.syncer.Sync(ctx, *period)
			if err != nil {
				return err
			}
			return WriteResultCSV(os.Stdout, report.Result)
		}

		result, err := a.calculate(ctx, os.Stdout, *period)
		if err != nil || csvPath == "" {
			return err
		}
		return exportCSV(csvPath, *period, result)
	})
	return cmd
}

func (a *app) printBills(ctx context.Context, w io.Writer, period models.Period) error {
	bills, accounts, err := a.syncer.PaidBills(ctx, period)
	if err != nil {
		return err
	}

	if len(bills) == 0 {
		fmt.Fprintf(w, "No paid bills in %s for accounts %v\n", period, accounts)
		return nil
	}

	fmt.Fprintf(w, "Found %d paid bills in %s:\n\n", len(bills), period)
	fmt.Fprintf(w, "%-12s %-8s %-12s %-40s %-25s %15s\n", "ID", "Account", "Due", "Description", "Supplier", "Amount")
	fmt.Fprintln(w, strings.Repeat("-", 117))
	for _, b := range bills {
		fmt.Fprintf(w, "%-12s %-8s %-12s %-40s %-25s %15s\n",
			b.ID,
			b.Account,
			b.PaymentDate,
			truncate(b.Description, 40),
			truncate(b.Supplier, 25),
			models.DisplayBRL(b.Amount))
	}
	total := lo.Reduce(bills, func(sum decimal.Decimal, b models.PaidBill, _ int) decimal.Decimal {
		return sum.Add(b.Amount)
	}, decimal.Zero)
	fmt.Fprintf(w, "\nTotal: %s\n", models.DisplayBRL(total))
	return nil
}

func (a *app) printProducts(ctx context.Context, w io.Writer, period models.Period) error {
	products, accounts, err := a.syncer.Products(ctx, period)
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Fprintf(w, "No products sold in %s for accounts %v\n", period, accounts)
		return nil
	}

	fmt.Fprintf(w, "Found %d products in %s:\n\n", len(products), period)
	fmt.Fprintf(w, "%-40s %10s %15s %15s %-10s\n", "Product", "Quantity", "Unit Price", "Total", "Accounts")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, p := range products {
		fmt.Fprintf(w, "%-40s %10s %15s %15s %-10s\n",
			truncate(p.Name, 40),
			p.Quantity.String(),
			models.DisplayBRL(p.UnitPrice),
			models.DisplayBRL(p.TotalValue),
			strings.Join(lo.Map(p.Accounts, func(acc models.AccountID, _ int) string { return acc.String() }), ","))
	}
	return nil
}

// calculate syncs the month and prints the margin table.
func (a *app) calculate(ctx context.Context, w io.Writer, period models.Period) (*models.CalculationResult, error) {
	report, err := a.syncer.Sync(ctx, period)
	if err != nil {
		return nil, err
	}
	printResult(w, period, report.Result)
	return report.Result, nil
}

func (a *app) printCalculation(ctx context.Context, w io.Writer, period models.Period) error {
	_, err := a.calculate(ctx, w, period)
	return err
}

func printResult(w io.Writer, period models.Period, result *models.CalculationResult) {
	fmt.Fprintf(w, "Contribution margin for %s:\n\n", period)
	fmt.Fprintf(w, "%-40s %10s %14s %12s %12s %12s %15s\n", "Product", "Qty", "Price", "Tax", "Unit Cost", "Unit MC", "Total MC")
	fmt.Fprintln(w, strings.Repeat("-", 121))
	for _, p := range sortedByMargin(result.Products) {
		fmt.Fprintf(w, "%-40s %10s %14s %12s %12s %12s %15s\n",
			truncate(p.Name, 40),
			p.Quantity.String(),
			models.DisplayBRL(p.SalePrice),
			models.DisplayBRL(p.TaxPerUnit),
			models.DisplayBRL(p.UnitCost),
			models.DisplayBRL(p.UnitMargin),
			models.DisplayBRL(p.TotalMargin))
	}

	s := result.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-25s %15s\n", "Revenue", models.DisplayBRL(s.Revenue))
	fmt.Fprintf(w, "%-25s %15s\n", "Taxes", models.DisplayBRL(s.Taxes))
	fmt.Fprintf(w, "%-25s %15s\n", "Product cost", models.DisplayBRL(s.ProductCost))
	fmt.Fprintf(w, "%-25s %15s\n", "Contribution margin", models.DisplayBRL(s.ContributionMargin))
	fmt.Fprintf(w, "%-25s %15s\n", "Expenses", models.DisplayBRL(s.Expenses))
	fmt.Fprintf(w, "%-25s %15s\n", "Operational result", models.DisplayBRL(s.OperationalResult))
}

func (a *app) printStatus() {
	for _, account := range models.AllAccounts() {
		connected, updated, err := a.tokens.Status(account)
		switch {
		case err != nil:
			fmt.Printf("Account %s: error (%v)\n", account, err)
		case !connected:
			fmt.Printf("Account %s: not connected\n", account)
		default:
			fmt.Printf("Account %s: connected, token updated %s\n", account, updated.Local().Format(time.DateTime))
		}
	}
}

func exportCSV(path string, period models.Period, result *models.CalculationResult) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ExportFileName(period))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating csv file: %w", err)
	}
	defer f.Close()

	if err := WriteResultCSV(f, result); err != nil {
		return err
	}
	fmt.Printf("\nExported to %s\n", path)
	return f.Close()
}

func truncate(s string, n int) string {
	r := []rune(s)
	return string(r[:min(n, len(r))])
}
