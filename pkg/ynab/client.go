package ynab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ClientConfig represents the configuration for the YNAB API client.
type ClientConfig struct {
	APIURL   string
	BudgetID string
	Tokens   []string      // ordered credential list; must not be empty
	Timeout  time.Duration // per-request; default 30 seconds
	Retry    RetryConfig
	Pool     PoolConfig
	Logger   *slog.Logger
}

// Client is a YNAB API client that spreads calls across a pool of
// credentials and recovers from transient failures without retrying
// writes. It exposes one logical operation per endpoint; credential
// selection is hidden entirely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	budgetID   string
	pool       *Pool
	retry      RetryConfig
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error // replaced in tests
}

// NewClient creates a new multi-credential API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIURL == "" {
		return nil, fmt.Errorf("API URL is required")
	}
	if config.BudgetID == "" {
		return nil, fmt.Errorf("budget ID is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewPool(config.Tokens, config.Pool, logger)
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    config.APIURL,
		budgetID:   config.BudgetID,
		pool:       pool,
		retry:      config.Retry.withDefaults(),
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

// Pool returns the client's credential pool.
func (c *Client) Pool() *Pool {
	return c.pool
}

// ListTransactions lists budget transactions with optional filters.
func (c *Client) ListTransactions(ctx context.Context, opts ListOptions) ([]Transaction, error) {
	query := url.Values{}
	if opts.SinceDate != "" {
		query.Set("since_date", opts.SinceDate)
	}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	path := fmt.Sprintf("/budgets/%s/transactions", c.budgetID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out transactionsResponse
	err := c.execute(ctx, "transactions.list", true, func(ctx context.Context, token string) error {
		return c.doJSON(ctx, token, http.MethodGet, path, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Data.Transactions, nil
}

// GetTransaction fetches a single transaction by id.
func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	path := fmt.Sprintf("/budgets/%s/transactions/%s", c.budgetID, url.PathEscape(id))

	var out transactionResponse
	err := c.execute(ctx, "transactions.get", true, func(ctx context.Context, token string) error {
		return c.doJSON(ctx, token, http.MethodGet, path, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out.Data.Transaction, nil
}

// CreateTransaction creates a new transaction. The service assigns the id.
func (c *Client) CreateTransaction(ctx context.Context, tx SaveTransaction) (*Transaction, error) {
	path := fmt.Sprintf("/budgets/%s/transactions", c.budgetID)

	var out transactionResponse
	err := c.execute(ctx, "transactions.create", false, func(ctx context.Context, token string) error {
		return c.doJSON(ctx, token, http.MethodPost, path, saveTransactionBody{Transaction: tx}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out.Data.Transaction, nil
}

// UpdateTransaction applies a sparse patch to a transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch Patch) (*Transaction, error) {
	path := fmt.Sprintf("/budgets/%s/transactions/%s", c.budgetID, url.PathEscape(id))

	var out transactionResponse
	err := c.execute(ctx, "transactions.update", false, func(ctx context.Context, token string) error {
		return c.doJSON(ctx, token, http.MethodPatch, path, saveTransactionBody{Transaction: patch}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out.Data.Transaction, nil
}

// DeleteTransaction deletes a transaction and returns its final state.
func (c *Client) DeleteTransaction(ctx context.Context, id string) (*Transaction, error) {
	path := fmt.Sprintf("/budgets/%s/transactions/%s", c.budgetID, url.PathEscape(id))

	var out transactionResponse
	err := c.execute(ctx, "transactions.delete", false, func(ctx context.Context, token string) error {
		return c.doJSON(ctx, token, http.MethodDelete, path, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out.Data.Transaction, nil
}
