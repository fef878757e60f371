package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/salesql/query"
)

// orderRow is one line of the parquet fixture
type orderRow struct {
	OrderID  int64   `parquet:"order_id"`
	Product  string  `parquet:"product"`
	Quantity int64   `parquet:"quantity"`
	Price    float64 `parquet:"price_each"`
}

func createOrdersParquetFile(t *testing.T, dir, filename string, rows []orderRow) string {
	t.Helper()
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	require.NoError(t, err)
	writer := parquet.NewGenericWriter[orderRow](f)
	_, err = writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())
	return path
}

func writeSalesCSV(t *testing.T, dir string) string {
	t.Helper()
	content := "Order ID,Product,Quantity Ordered,Price,Purchase Address\n" +
		"295665,Macbook Pro Laptop,1,1700,\"136 Church St, New York City, NY 10001\"\n" +
		"ABC,Order ID,Quantity Ordered,Price,Purchase Address\n" +
		"295666,LG Washing Machine,2,600.0,\"562 2nd St, New York City, NY 10001\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sales_April_2019.csv"), []byte(content), 0o644))
	return filepath.Join(dir, "*.csv")
}

func noEnv(string) (string, bool) { return "", false }

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr, noEnv)
	return stdout.String(), stderr.String(), err
}

func TestRun_Query(t *testing.T) {
	pattern := writeSalesCSV(t, t.TempDir())

	stdout, _, err := execute(t, "--dataset", pattern, "-f", "csv",
		"-q", `CREATE TABLE sales AS SELECT "Order ID"::INTEGER AS order_id FROM df WHERE TRY_CAST("Order ID" AS INTEGER) NOTNULL; SELECT COUNT(*) AS n FROM sales`)
	require.NoError(t, err)
	require.Equal(t, "n\n2\n", stdout)
}

func TestRun_QueryParquetGlob(t *testing.T) {
	dir := t.TempDir()
	createOrdersParquetFile(t, dir, "april.parquet", []orderRow{
		{OrderID: 1, Product: "Google Phone", Quantity: 1, Price: 600},
		{OrderID: 2, Product: "Wired Headphones", Quantity: 2, Price: 11.99},
	})
	createOrdersParquetFile(t, dir, "may.parquet", []orderRow{
		{OrderID: 3, Product: "Google Phone", Quantity: 1, Price: 600},
	})

	pattern := filepath.Join(dir, "*.parquet")
	stdout, _, err := execute(t, "--dataset", filepath.Join(dir, "none", "*.csv"), "-f", "json",
		"-q", "SELECT product, SUM(quantity * price_each) AS revenue FROM '"+pattern+"' GROUP BY product ORDER BY revenue DESC")
	require.NoError(t, err)
	require.Equal(t,
		`{"product":"Google Phone","revenue":1200}`+"\n"+`{"product":"Wired Headphones","revenue":23.98}`+"\n",
		stdout)
}

func TestRun_Exploration(t *testing.T) {
	pattern := writeSalesCSV(t, t.TempDir())

	stdout, stderr, err := execute(t, "--dataset", pattern, "--preview", "3", "-v")
	require.ErrorIs(t, err, query.ErrColumnNotFound)
	require.Contains(t, stdout, "time: ")
	require.Contains(t, stdout, "Macbook Pro Laptop")
	require.Contains(t, stderr, "step done")
}

func TestRun_Errors(t *testing.T) {
	_, _, err := execute(t, "-f", "xml")
	require.ErrorContains(t, err, "unknown output format")

	_, _, err = execute(t, "--dataset", filepath.Join(t.TempDir(), "*.csv"), "-q", "SELECT * FROM missing")
	require.ErrorContains(t, err, "missing")

	stdout, _, err := execute(t, "--dataset", filepath.Join(t.TempDir(), "*.csv"), "-f", "csv", "-q", "SELECT upper('ok') AS s")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "s\nOK"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, loadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, "vars.env")
	require.NoError(t, os.WriteFile(path, []byte("SALESQL_DOTENV_CHECK=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SALESQL_DOTENV_CHECK") })
	require.NoError(t, loadDotEnv(path))
	require.Equal(t, "loaded", os.Getenv("SALESQL_DOTENV_CHECK"))

	// a directory can be opened but not read
	unreadable := filepath.Join(dir, "dir.env")
	require.NoError(t, os.Mkdir(unreadable, 0o755))
	err := loadDotEnv(unreadable)
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to load env file")
}
