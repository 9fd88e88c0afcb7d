// Package sheets reads registration exports straight from a Google Sheet.
package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/JonMunkholm/checkin/internal/ingest"
)

// Client reads one spreadsheet.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// New authenticates with a service account key file.
func New(ctx context.Context, credentialsFile, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return NewWithOptions(ctx, spreadsheetID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
	)
}

// NewWithOptions builds a client from explicit API options.
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// ReadRows returns every row in readRange (for example "Sheet1" or
// "Registrations!A:Z"). Values are unformatted, so numbers and booleans
// arrive typed rather than as display strings.
func (c *Client) ReadRows(ctx context.Context, readRange string) ([][]ingest.Cell, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}

	rows := make([][]ingest.Cell, len(resp.Values))
	for i, values := range resp.Values {
		row := make([]ingest.Cell, len(values))
		for j, v := range values {
			row[j] = ingest.CellFromValue(v)
		}
		rows[i] = row
	}
	return rows, nil
}
