// Package transfer reads and writes the JSON interchange format used by
// export and import: a pretty-printed array of transaction objects.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// Export writes records as a JSON array indented with two spaces.
func Export(w io.Writer, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	return nil
}

// ExportFile writes records to path. The file is replaced atomically so a
// failed export never leaves a truncated document behind.
func ExportFile(path string, records []core.Transaction) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".fintrack-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Export(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// rawRecord keeps the amount undecoded so a missing or null amount can be
// told apart from zero.
type rawRecord struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	UpdatedAt   json.RawMessage `json:"updatedAt"`
}

// Import decodes a JSON array of transactions. Every element must carry a
// non-empty id, description, category and date and a numeric amount;
// anything else fails the whole document with core.ErrMalformedImport.
// Business rules are left to the record store.
func Import(r io.Reader) ([]core.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", core.ErrMalformedImport)
	}

	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedImport, err)
	}

	out := make([]core.Transaction, 0, len(raws))
	for i, raw := range raws {
		tx, err := raw.transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", core.ErrMalformedImport, i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (raw rawRecord) transaction() (core.Transaction, error) {
	switch {
	case raw.ID == "":
		return core.Transaction{}, fmt.Errorf("missing id")
	case raw.Description == "":
		return core.Transaction{}, fmt.Errorf("missing description")
	case raw.Category == "":
		return core.Transaction{}, fmt.Errorf("missing category")
	case raw.Date == "":
		return core.Transaction{}, fmt.Errorf("missing date")
	}
	amount := bytes.TrimSpace(raw.Amount)
	if len(amount) == 0 || bytes.Equal(amount, []byte("null")) {
		return core.Transaction{}, fmt.Errorf("missing amount")
	}

	tx := core.Transaction{
		ID:          raw.ID,
		Description: raw.Description,
		Category:    raw.Category,
		Date:        raw.Date,
	}
	if err := json.Unmarshal(amount, &tx.Amount); err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	if len(raw.CreatedAt) > 0 {
		if err := json.Unmarshal(raw.CreatedAt, &tx.CreatedAt); err != nil {
			return core.Transaction{}, fmt.Errorf("createdAt: %w", err)
		}
	}
	if len(raw.UpdatedAt) > 0 {
		if err := json.Unmarshal(raw.UpdatedAt, &tx.UpdatedAt); err != nil {
			return core.Transaction{}, fmt.Errorf("updatedAt: %w", err)
		}
	}
	return tx, nil
}

// ImportFile decodes the document at path.
func ImportFile(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import: %w", err)
	}
	defer f.Close()

	records, err := Import(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ImportFiles decodes several documents concurrently and concatenates the
// results in argument order. The first failure cancels the rest.
func ImportFiles(ctx context.Context, paths ...string) ([]core.Transaction, error) {
	batches := make([][]core.Transaction, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := ImportFile(path)
			if err != nil {
				return err
			}
			batches[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Transaction
	for _, b := range batches {
		out = append(out, b...)
	}
	return out, nil
}
