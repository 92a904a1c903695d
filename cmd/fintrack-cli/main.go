package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	// Keep stdout for command output; logs only surface warnings.
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"), applog.ComponentCLI)

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage(os.Stdout)
		return
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != config.BackendSQLite {
		fmt.Fprintln(os.Stderr, "fintrack-cli needs DATA_BACKEND=sqlite; the memory backend does not outlive the command")
		os.Exit(2)
	}

	os.Exit(run(cmd, os.Args[2:], cfg, os.Stdout, os.Stderr))
}

func run(cmd string, args []string, cfg *config.Config, stdout, stderr io.Writer) int {
	store, err := cli.OpenStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer store.Close()

	var publisher services.EventPublisher
	if amqpClient, err := cli.NewPublisher(cfg); err != nil {
		fmt.Fprintf(stderr, "warning: transaction events disabled: %v\n", err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	ledger, _, err := cli.NewLedger(cfg, store, publisher)
	if err != nil {
		fmt.Fprintf(stderr, "build ledger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "create":
		err = runCreate(ctx, ledger, stdout)
	case "tx":
		err = runTransaction(ctx, ledger, args, stdout)
	case "balance":
		err = runBalance(ctx, ledger, args, stdout)
	case "recent":
		err = runRecent(ctx, ledger, args, stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", describe(err))
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "fintrack ledger CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  fintrack-cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  create    Open a new account")
	fmt.Fprintln(w, "  tx        Record a transaction (-account, -type, -amount, -product, -description)")
	fmt.Fprintln(w, "  balance   Show balance and spending totals (-account)")
	fmt.Fprintln(w, "  recent    List the latest transactions (-account, -limit)")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nSpending types: EarningMoney, Investment, Spending, Bills")
}

func runCreate(ctx context.Context, ledger *services.LedgerService, out io.Writer) error {
	id, err := ledger.CreateAccount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created account %d\n", id)
	return nil
}

func runTransaction(ctx context.Context, ledger *services.LedgerService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tx", flag.ContinueOnError)
	account := fs.Int64("account", 0, "account id; 0 opens a new account")
	spendingType := fs.String("type", "", "EarningMoney, Investment, Spending or Bills")
	amount := fs.String("amount", "", "positive amount, e.g. 12.50")
	product := fs.String("product", "", "product or counterparty")
	description := fs.String("description", "", "free text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	value, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	req := core.TransactionRequest{
		SpendingType: *spendingType,
		Amount:       value,
		Product:      *product,
		Description:  *description,
	}
	if *account > 0 {
		req.AccountID = account
	}

	receipt, err := ledger.ProcessTransaction(ctx, req)
	if err != nil {
		return err
	}
	if receipt.AccountCreated {
		fmt.Fprintf(out, "Created account %d\n", receipt.AccountID)
	}
	fmt.Fprintf(out, "Recorded transaction %d on account %d, balance %s\n",
		receipt.TransactionID, receipt.AccountID, core.FormatAmount(receipt.Balance))
	return nil
}

func runBalance(ctx context.Context, ledger *services.LedgerService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	account := fs.Int64("account", 0, "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account <= 0 {
		return errors.New("-account is required")
	}

	snap, err := ledger.GetBalanceSnapshot(ctx, *account)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Account\t%d\n", snap.AccountID)
	fmt.Fprintf(tw, "Balance\t%s\n", core.FormatAmount(snap.Balance))
	fmt.Fprintf(tw, "Spent today\t%s\n", core.FormatAmount(snap.Daily))
	fmt.Fprintf(tw, "Spent this week\t%s\n", core.FormatAmount(snap.Weekly))
	fmt.Fprintf(tw, "Spent this month\t%s\n", core.FormatAmount(snap.Monthly))
	fmt.Fprintf(tw, "Spent this year\t%s\n", core.FormatAmount(snap.Yearly))
	fmt.Fprintf(tw, "Invested\t%s\n", core.FormatAmount(snap.Investments))
	return tw.Flush()
}

func runRecent(ctx context.Context, ledger *services.LedgerService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	account := fs.Int64("account", 0, "account id")
	limit := fs.Int("limit", 0, "number of transactions; 0 uses RECENT_LIMIT")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account <= 0 {
		return errors.New("-account is required")
	}

	txs, err := ledger.GetRecentTransactions(ctx, *account, *limit)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(out, "No transactions")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTYPE\tAMOUNT\tPRODUCT\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Timestamp.Local().Format("2006-01-02 15:04"), t.SpendingType,
			core.FormatAmount(t.Amount), t.Product, t.Description)
	}
	return tw.Flush()
}

// describe turns service errors into messages for a terminal user.
func describe(err error) string {
	var pe *core.ProcessingError
	switch {
	case errors.Is(err, core.ErrAccountNotFound):
		return "account not found"
	case errors.Is(err, core.ErrInvalidSpendingType):
		return "invalid spending type (use EarningMoney, Investment, Spending or Bills)"
	case errors.Is(err, core.ErrInvalidAmount):
		return "invalid amount (must be a positive number)"
	case errors.As(err, &pe):
		return fmt.Sprintf("transaction failed at %s: %v", pe.Step, pe.Err)
	default:
		return err.Error()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
