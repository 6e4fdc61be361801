package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-segmentation/internal/errors"
)

const testHeader = "master_id,order_channel,last_order_channel,first_order_date,last_order_date,last_order_date_online,last_order_date_offline,order_num_total_ever_online,order_num_total_ever_offline,customer_value_total_ever_offline,customer_value_total_ever_online,interested_in_categories_12"

const sampleFile = "testdata/flo_sample.csv"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCustomers_Sample(t *testing.T) {
	customers, err := LoadCustomersFile(context.Background(), sampleFile)
	require.NoError(t, err)
	require.Len(t, customers, 10)

	c := customers[2]
	assert.Equal(t, "c03", c.MasterID)
	assert.Equal(t, 4, c.SourceRow)
	assert.Equal(t, "Android App", c.OrderChannel)
	assert.Equal(t, "Offline", c.LastOrderChannel)
	assert.Equal(t, time.Date(2021, 5, 23, 0, 0, 0, 0, time.UTC), c.LastOrderDate)
	assert.Equal(t, time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC), c.LastOrderDateOnline)
	assert.Equal(t, 2, c.OrderNumOnline)
	assert.Equal(t, 1, c.OrderNumOffline)
	assert.Equal(t, "100", c.ValueOffline.String())
	assert.Equal(t, "70", c.ValueOnline.String())
	assert.Equal(t, []string{"COCUK", "KADIN"}, c.Categories)

	assert.Nil(t, customers[1].Categories)
}

func TestLoadCustomers_ColumnOrderAndExtras(t *testing.T) {
	csv := "extra,interested_in_categories_12,customer_value_total_ever_online,customer_value_total_ever_offline,order_num_total_ever_offline,order_num_total_ever_online,last_order_date_offline,last_order_date_online,last_order_date,first_order_date,last_order_channel,order_channel,master_id\n" +
		"x,[KADIN],10.5,1.25,1.0,2.0,2021-01-01,2021-02-01,2021-02-01,2020-01-01,Mobile,Mobile,abc\n"

	customers, err := LoadCustomers(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "abc", customers[0].MasterID)
	assert.Equal(t, 2, customers[0].OrderNumOnline)
	assert.Equal(t, "10.5", customers[0].ValueOnline.String())
}

func TestLoadCustomers_BlankChannelDatesAllowed(t *testing.T) {
	csv := testHeader + "\nabc,Mobile,Mobile,2020-01-01,2021-02-01,2021-02-01,,1.0,0.0,0,99.9,[KADIN]\n"

	customers, err := LoadCustomers(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.True(t, customers[0].LastOrderDateOffline.IsZero())
}

func TestLoadCustomers_Errors(t *testing.T) {
	row := func(fields ...string) string {
		base := []string{"abc", "Mobile", "Mobile", "2020-01-01", "2021-02-01", "2021-02-01", "2021-01-01", "1.0", "1.0", "10", "20", "[KADIN]"}
		for i := 0; i+1 < len(fields); i += 2 {
			switch fields[i] {
			case "id":
				base[0] = fields[i+1]
			case "last":
				base[4] = fields[i+1]
			case "online":
				base[7] = fields[i+1]
			case "value":
				base[9] = fields[i+1]
			}
		}
		return strings.Join(base, ",")
	}

	tests := []struct {
		name     string
		csv      string
		code     errors.ErrorCode
		row      int
		customer string
		column   string
	}{
		{
			name: "empty file",
			csv:  "",
			code: errors.CodeInputFile,
		},
		{
			name: "header only",
			csv:  testHeader,
			code: errors.CodeDataQuality,
		},
		{
			name:   "missing column",
			csv:    strings.Replace(testHeader, ",interested_in_categories_12", "", 1) + "\n",
			code:   errors.CodeMissingColumn,
			column: "interested_in_categories_12",
		},
		{
			name:     "invalid date",
			csv:      testHeader + "\n" + row() + "\n" + row("id", "bad", "last", "31/02/2021"),
			code:     errors.CodeDataQuality,
			row:      3,
			customer: "bad",
			column:   "last_order_date",
		},
		{
			name:     "missing last order date",
			csv:      testHeader + "\n" + row("last", ""),
			code:     errors.CodeDataQuality,
			row:      2,
			customer: "abc",
			column:   "last_order_date",
		},
		{
			name:     "invalid order count",
			csv:      testHeader + "\n" + row("online", "many"),
			code:     errors.CodeDataQuality,
			row:      2,
			customer: "abc",
			column:   "order_num_total_ever_online",
		},
		{
			name:     "fractional order count",
			csv:      testHeader + "\n" + row("online", "1.5"),
			code:     errors.CodeDataQuality,
			customer: "abc",
			column:   "order_num_total_ever_online",
			row:      2,
		},
		{
			name:     "negative amount",
			csv:      testHeader + "\n" + row("value", "-3"),
			code:     errors.CodeDataQuality,
			row:      2,
			customer: "abc",
			column:   "customer_value_total_ever_offline",
		},
		{
			name:   "missing identifier",
			csv:    testHeader + "\n" + row("id", ""),
			code:   errors.CodeDataQuality,
			row:    2,
			column: "master_id",
		},
		{
			name:     "duplicate identifier",
			csv:      testHeader + "\n" + row() + "\n" + row(),
			code:     errors.CodeDataQuality,
			row:      3,
			customer: "abc",
			column:   "master_id",
		},
		{
			name: "ragged row",
			csv:  testHeader + "\nabc,Mobile\n",
			code: errors.CodeDataQuality,
			row:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCustomers(context.Background(), strings.NewReader(tt.csv))
			require.Error(t, err)

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			if tt.row != 0 {
				assert.Equal(t, tt.row, appErr.Row)
			}
			assert.Equal(t, tt.customer, appErr.CustomerID)
			assert.Equal(t, tt.column, appErr.Column)
		})
	}
}

func TestLoadCustomersFile_Missing(t *testing.T) {
	_, err := LoadCustomersFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.Is(err, errors.CodeInputFile))
}

func TestLoadCustomers_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	_, err = LoadCustomers(ctx, strings.NewReader(string(data)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"[KADIN]", []string{"KADIN"}},
		{"[ERKEK, COCUK, KADIN, AKTIFSPOR]", []string{"ERKEK", "COCUK", "KADIN", "AKTIFSPOR"}},
		{"['ERKEK', 'COCUK']", []string{"ERKEK", "COCUK"}},
		{"[]", nil},
		{"", nil},
		{"KADIN", []string{"KADIN"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategories(tt.in), tt.in)
	}
}
