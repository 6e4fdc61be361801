package services

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
)

const (
	colMasterID             = "master_id"
	colOrderChannel         = "order_channel"
	colLastOrderChannel     = "last_order_channel"
	colFirstOrderDate       = "first_order_date"
	colLastOrderDate        = "last_order_date"
	colLastOrderDateOnline  = "last_order_date_online"
	colLastOrderDateOffline = "last_order_date_offline"
	colOrderNumOnline       = "order_num_total_ever_online"
	colOrderNumOffline      = "order_num_total_ever_offline"
	colValueOffline         = "customer_value_total_ever_offline"
	colValueOnline          = "customer_value_total_ever_online"
	colCategories           = "interested_in_categories_12"
)

// RequiredColumns are the header names the input table must carry. Column
// order in the file is irrelevant and extra columns are ignored.
var RequiredColumns = []string{
	colMasterID,
	colOrderChannel,
	colLastOrderChannel,
	colFirstOrderDate,
	colLastOrderDate,
	colLastOrderDateOnline,
	colLastOrderDateOffline,
	colOrderNumOnline,
	colOrderNumOffline,
	colValueOffline,
	colValueOnline,
	colCategories,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCustomersFile opens path and parses it with LoadCustomers.
func LoadCustomersFile(ctx context.Context, path string) ([]models.Customer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.InputFileWrap(err, fmt.Sprintf("open input file %s", path))
	}
	defer file.Close()

	return LoadCustomers(ctx, file)
}

// LoadCustomers reads the customer table. Any malformed value aborts the
// load with a DATA_QUALITY error naming the row and customer.
func LoadCustomers(ctx context.Context, r io.Reader) ([]models.Customer, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.InputFileWrap(err, "empty input file")
	}
	if err != nil {
		return nil, errors.InputFileWrap(err, "read header")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var customers []models.Customer
	seen := make(map[string]int)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				return nil, errors.DataQuality(parseErr.Line, "", "", "malformed CSV record", err)
			}
			return nil, errors.InputFileWrap(err, "read record")
		}

		line, _ := reader.FieldPos(0)
		customer, err := parseCustomer(record, index, line)
		if err != nil {
			return nil, err
		}

		if firstRow, dup := seen[customer.MasterID]; dup {
			return nil, errors.DataQuality(line, customer.MasterID, colMasterID,
				fmt.Sprintf("duplicate customer identifier, first seen on row %d", firstRow), nil)
		}
		seen[customer.MasterID] = line

		customers = append(customers, customer)
	}

	if len(customers) == 0 {
		return nil, errors.DataQuality(0, "", "", "no customer records found", nil)
	}

	return customers, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}

	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.MissingColumn(col)
		}
	}
	return index, nil
}

type rowParser struct {
	record []string
	index  map[string]int
	line   int
	id     string
}

func (p *rowParser) field(col string) string {
	return strings.TrimSpace(p.record[p.index[col]])
}

func (p *rowParser) fail(col, message string, cause error) error {
	return errors.DataQuality(p.line, p.id, col, message, cause)
}

func (p *rowParser) date(col string, optional bool) (time.Time, error) {
	value := p.field(col)
	if value == "" {
		if optional {
			return time.Time{}, nil
		}
		return time.Time{}, p.fail(col, "missing date", nil)
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, p.fail(col, fmt.Sprintf("invalid date %q", value), lastErr)
}

// count parses an order counter. The source data stores them as floats
// ("4.0"), so integral float values are accepted.
func (p *rowParser) count(col string) (int, error) {
	value := p.field(col)
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, p.fail(col, fmt.Sprintf("invalid order count %q", value), err)
	}
	if f < 0 || f != float64(int(f)) {
		return 0, p.fail(col, fmt.Sprintf("order count %q must be a non-negative integer", value), nil)
	}
	return int(f), nil
}

func (p *rowParser) amount(col string) (decimal.Decimal, error) {
	value := p.field(col)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, p.fail(col, fmt.Sprintf("invalid amount %q", value), err)
	}
	if d.IsNegative() {
		return decimal.Zero, p.fail(col, fmt.Sprintf("amount %q must not be negative", value), nil)
	}
	return d, nil
}

func parseCustomer(record []string, index map[string]int, line int) (models.Customer, error) {
	p := &rowParser{record: record, index: index, line: line}

	p.id = p.field(colMasterID)
	if p.id == "" {
		return models.Customer{}, p.fail(colMasterID, "missing customer identifier", nil)
	}

	c := models.Customer{
		SourceRow:        line,
		MasterID:         p.id,
		OrderChannel:     p.field(colOrderChannel),
		LastOrderChannel: p.field(colLastOrderChannel),
		Categories:       ParseCategories(p.field(colCategories)),
	}

	var err error
	if c.FirstOrderDate, err = p.date(colFirstOrderDate, false); err != nil {
		return models.Customer{}, err
	}
	if c.LastOrderDate, err = p.date(colLastOrderDate, false); err != nil {
		return models.Customer{}, err
	}
	if c.LastOrderDateOnline, err = p.date(colLastOrderDateOnline, true); err != nil {
		return models.Customer{}, err
	}
	if c.LastOrderDateOffline, err = p.date(colLastOrderDateOffline, true); err != nil {
		return models.Customer{}, err
	}
	if c.OrderNumOnline, err = p.count(colOrderNumOnline); err != nil {
		return models.Customer{}, err
	}
	if c.OrderNumOffline, err = p.count(colOrderNumOffline); err != nil {
		return models.Customer{}, err
	}
	if c.ValueOffline, err = p.amount(colValueOffline); err != nil {
		return models.Customer{}, err
	}
	if c.ValueOnline, err = p.amount(colValueOnline); err != nil {
		return models.Customer{}, err
	}

	return c, nil
}

// ParseCategories splits a bracketed list such as "[KADIN, ERKEK]". An empty
// list yields nil.
func ParseCategories(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")

	var categories []string
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			categories = append(categories, part)
		}
	}
	return categories
}
