package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog exports and inserts/updates products.
//
// Recognised columns: id, title, description, category, image, and either
// priceCents (integer) or price (decimal, e.g. 109.95). Unknown columns are
// ignored; rows without a title are skipped.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger,
	}
}

// Run parses CSV rows and upserts one product per row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New(`read headers: missing "title" column`)
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if p == nil {
			i.logger.Debug("importer: skipping row without title", zap.Int("line", line))
			continue
		}
		if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.Title, err)
		}
		imported++
	}

	i.logger.Info("importer: catalog imported", zap.Int("products", imported))
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	title := pick(record, index, "title")
	if title == "" {
		return nil, nil
	}

	var (
		cents int64
		err   error
	)
	if raw := pick(record, index, "priceCents"); raw != "" {
		cents, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid priceCents %q for %q", raw, title)
		}
	} else if raw := pick(record, index, "price"); raw != "" {
		cents, err = parsePriceCents(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %q: %w", raw, title, err)
		}
	}
	if cents < 0 {
		return nil, fmt.Errorf("negative price for %q", title)
	}

	return &domain.Product{
		ID:          pick(record, index, "id"),
		Title:       title,
		Description: pick(record, index, "description"),
		Category:    pick(record, index, "category"),
		ImageRef:    pick(record, index, "image"),
		PriceCents:  cents,
	}, nil
}

// parsePriceCents converts a decimal amount with at most two fraction digits
// into cents without going through float64.
func parsePriceCents(raw string) (int64, error) {
	whole, frac, _ := strings.Cut(raw, ".")
	if len(frac) > 2 {
		return 0, errors.New("more than two decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	hundredths, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || hundredths < 0 {
		return 0, fmt.Errorf("bad fraction %q", frac)
	}
	if units < 0 || strings.HasPrefix(whole, "-") {
		return 0, errors.New("negative amount")
	}
	return units*100 + hundredths, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
