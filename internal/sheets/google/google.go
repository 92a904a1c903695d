package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.Mirror = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	TransactionsSheet  string
	SummarySheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
	// IndexTTL bounds how long the id-to-row index is trusted (default: 5m)
	IndexTTL time.Duration
}

// Client mirrors ledger data into a Google spreadsheet. Row positions are
// cached so repeated writes do not rescan the sheets.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	summarySheet      string

	mu             sync.Mutex
	txRows         map[int64]int
	accountRows    map[int64]int
	cacheExpiresAt time.Time
	indexTTL       time.Duration
	now            func() time.Time
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"transactions_sheet", cfg.TransactionsSheet,
		"summary_sheet", cfg.SummarySheet)

	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	ttl := cfg.IndexTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		summarySheet:      cfg.SummarySheet,
		indexTTL:          ttl,
		now:               time.Now,
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// AppendTransaction writes tx as a new row unless its id is already present.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.refreshIndex(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	row, seen := c.txRows[tx.ID]
	c.mu.Unlock()
	if seen {
		return fmt.Sprintf("%s!A%d", c.transactionsSheet, row), nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.transactionsSheet+"!A:G", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.transactionsSheet, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	if n, ok := rowFromRange(ref); ok {
		c.mu.Lock()
		c.txRows[tx.ID] = n
		c.mu.Unlock()
	}
	return ref, nil
}

// WriteAccountSummary overwrites the account's summary row, appending one
// the first time the account is seen.
func (c *Client) WriteAccountSummary(ctx context.Context, snap core.BalanceSnapshot) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.refreshIndex(ctx); err != nil {
		return "", err
	}

	values := &gsheet.ValueRange{Values: [][]any{summaryRow(snap, c.now())}}

	c.mu.Lock()
	row, known := c.accountRows[snap.AccountID]
	c.mu.Unlock()

	if known {
		rng := fmt.Sprintf("%s!A%d:H%d", c.summarySheet, row, row)
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.summarySheet+"!A:H", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.summarySheet, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	if n, ok := rowFromRange(ref); ok {
		c.mu.Lock()
		c.accountRows[snap.AccountID] = n
		c.mu.Unlock()
	}
	return ref, nil
}

// refreshIndex rereads column A of both sheets once the cached index expires.
func (c *Client) refreshIndex(ctx context.Context) error {
	c.mu.Lock()
	valid := c.txRows != nil && c.now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if valid {
		return nil
	}

	txIDs, err := c.readIDs(ctx, c.transactionsSheet)
	if err != nil {
		return err
	}
	accountIDs, err := c.readIDs(ctx, c.summarySheet)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.txRows = txIDs
	c.accountRows = accountIDs
	c.cacheExpiresAt = c.now().Add(c.indexTTL)
	c.mu.Unlock()

	slog.DebugContext(ctx, "Sheets row index refreshed",
		"transactions", len(txIDs),
		"accounts", len(accountIDs))
	return nil
}

func (c *Client) readIDs(ctx context.Context, sheet string) (map[int64]int, error) {
	rng := sheet + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return indexIDs(resp.Values), nil
}
