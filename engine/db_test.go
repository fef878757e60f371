package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/salesql/frame"
	"github.com/vegasq/salesql/query"
	"github.com/vegasq/salesql/reader"
)

const ordersCSV = `Order ID,Product,Quantity Ordered,Price,Purchase Address
295665,Macbook Pro Laptop,1,1700,"136 Church St, New York City, NY 10001"
ABC,Order ID,Quantity Ordered,Price,Purchase Address
295666,LG Washing Machine,2,600.0,"562 2nd St, San Francisco, CA 94016"
`

// writeOrders writes the orders fixture split over two files and returns the glob
func writeOrders(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sales_April_2019.csv"), []byte(ordersCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sales_May_2019.csv"),
		[]byte("Order ID,Product,Quantity Ordered,Price,Purchase Address\n,,,,\n295667,USB-C Charging Cable,3,11.95,\"277 Main St, Dallas, TX 75001\"\n"), 0o644))
	return filepath.Join(dir, "*.csv")
}

func ordersFrame() *frame.DataFrame {
	return frame.New([]frame.Column{
		{Name: "order_id", Type: frame.BigInt},
		{Name: "product", Type: frame.Varchar},
	}, []frame.Row{
		{"order_id": int64(1), "product": "Google Phone"},
		{"order_id": int64(2), "product": "Wired Headphones"},
		{"order_id": nil, "product": nil},
	})
}

func count(t *testing.T, db *DB, sql string, opts ...ExecOption) int64 {
	t.Helper()
	df, err := db.Exec(context.Background(), sql, opts...)
	require.NoError(t, err)
	require.Equal(t, 1, df.Len())
	n, ok := df.Value(0, df.ColumnNames()[0]).(int64)
	require.True(t, ok)
	return n
}

func TestExec_ReadsFileGlob(t *testing.T) {
	t.Parallel()
	pattern := writeOrders(t)
	db := Open()
	defer db.Close()

	df, err := db.Exec(context.Background(), "SELECT * FROM '"+pattern+"' LIMIT 10")
	require.NoError(t, err)
	require.Equal(t, 5, df.Len())
	require.Equal(t, []string{"Order ID", "Product", "Quantity Ordered", "Price", "Purchase Address"}, df.ColumnNames())

	df, err = db.Exec(context.Background(), "SELECT * FROM '"+pattern+"' LIMIT 2")
	require.NoError(t, err)
	require.Equal(t, 2, df.Len())

	_, err = db.Exec(context.Background(), "SELECT * FROM '"+filepath.Join(t.TempDir(), "*.csv")+"'")
	require.ErrorIs(t, err, reader.ErrNoFilesMatched)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()
	ctx := context.Background()

	_, err := db.Exec(ctx, "SELECT COUNT(*) FROM df_view")
	require.ErrorIs(t, err, ErrNotFound)

	df := ordersFrame()
	require.NoError(t, db.Register("df_view", df))
	require.Equal(t, int64(df.Len()), count(t, db, "SELECT COUNT(*) FROM df_view"))
	require.Equal(t, int64(df.Len()), count(t, db, "SELECT COUNT(*) FROM df", WithFrame("df", df)))

	// the registered snapshot does not follow the caller's variable
	df = df.DropNulls(frame.DropAll)
	require.Equal(t, int64(3), count(t, db, "SELECT COUNT(*) FROM df_view"))
	require.Equal(t, int64(2), count(t, db, "SELECT COUNT(*) FROM df", WithFrame("df", df)))

	// rows are copied, not shared
	df.Row(0)["product"] = "changed"
	got, err := db.Exec(ctx, "SELECT product FROM df_view WHERE order_id = 1")
	require.NoError(t, err)
	require.Equal(t, "Google Phone", got.Value(0, "product"))

	// re-registering a frame replaces it
	require.NoError(t, db.Register("DF_VIEW", df))
	require.Equal(t, int64(2), count(t, db, "SELECT COUNT(*) FROM df_view"))

	require.NoError(t, db.Unregister("df_view"))
	require.ErrorIs(t, db.Unregister("df_view"), ErrNotFound)

	require.ErrorIs(t, db.Register("", df), query.ErrEmptyIdentifier)
}

func TestRegister_ConflictsWithTable(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()

	_, err := db.Exec(context.Background(), "CREATE TABLE t AS SELECT 1 AS x")
	require.NoError(t, err)
	require.ErrorIs(t, db.Register("t", ordersFrame()), ErrAlreadyExists)
	require.ErrorIs(t, db.Unregister("t"), ErrNotFound)
}

func TestWithFrame_CatalogTakesPrecedence(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()

	require.NoError(t, db.Register("df", ordersFrame()))
	other := frame.New([]frame.Column{{Name: "x", Type: frame.BigInt}}, []frame.Row{{"x": int64(1)}})
	require.Equal(t, int64(3), count(t, db, "SELECT COUNT(*) FROM df", WithFrame("df", other)))
}

func TestCreateTable(t *testing.T) {
	t.Parallel()
	pattern := writeOrders(t)
	db := Open()
	defer db.Close()
	ctx := context.Background()

	df, err := db.Exec(ctx, "SELECT * FROM '"+pattern+"'")
	require.NoError(t, err)

	res, err := db.Exec(ctx, `CREATE OR REPLACE TABLE sales AS SELECT "Order ID"::INTEGER AS order_id, Product AS product, "Quantity Ordered"::INTEGER AS quantity, "Price"::VARCHAR AS price, "Purchase Address" AS purchase_address FROM df WHERE TRY_CAST("Order ID" AS INTEGER) NOTNULL`,
		WithFrame("df", df))
	require.NoError(t, err)
	require.Equal(t, 0, res.Len())

	sales, err := db.Exec(ctx, "FROM sales")
	require.NoError(t, err)
	require.Equal(t, 3, sales.Len())
	require.Equal(t, []frame.Column{
		{Name: "order_id", Type: frame.Integer},
		{Name: "product", Type: frame.Varchar},
		{Name: "quantity", Type: frame.Integer},
		{Name: "price", Type: frame.Varchar},
		{Name: "purchase_address", Type: frame.Varchar},
	}, sales.Columns())
	require.Equal(t, int32(295665), sales.Value(0, "order_id"))
	require.Equal(t, "600.0", sales.Value(1, "price"))

	_, err = db.Exec(ctx, "CREATE TABLE sales AS SELECT 1")
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = db.Exec(ctx, "CREATE TABLE IF NOT EXISTS sales AS SELECT 1")
	require.NoError(t, err)
	require.Equal(t, int64(3), count(t, db, "SELECT COUNT(*) FROM sales"))

	excluded, err := db.Exec(ctx, "SELECT * EXCLUDE (product, purchase_address) FROM sales")
	require.NoError(t, err)
	require.Equal(t, []string{"order_id", "quantity", "price"}, excluded.ColumnNames())

	mins, err := db.Exec(ctx, "SELECT MIN(COLUMNS(* EXCLUDE (product, purchase_address))) FROM sales")
	require.NoError(t, err)
	require.Equal(t, []string{"min(order_id)", "min(quantity)", "min(price)"}, mins.ColumnNames())
	require.Equal(t, int32(295665), mins.Value(0, "min(order_id)"))
	require.Equal(t, "11.95", mins.Value(0, "min(price)"))
}

func TestCreateView(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.Register("orders", ordersFrame()))
	_, err := db.Exec(ctx, "CREATE VIEW named AS SELECT order_id FROM orders WHERE product NOTNULL")
	require.NoError(t, err)
	require.Equal(t, int64(2), count(t, db, "SELECT COUNT(*) FROM named"))

	// views are evaluated on read
	require.NoError(t, db.Register("orders", ordersFrame().DropNulls(frame.DropAll).Head(1)))
	require.Equal(t, int64(1), count(t, db, "SELECT COUNT(*) FROM named"))

	_, err = db.Exec(ctx, "CREATE VIEW broken AS SELECT SUM(order_id * price_each) AS revenue FROM orders")
	require.ErrorIs(t, err, query.ErrColumnNotFound)
	require.ErrorContains(t, err, "price_each")

	_, err = db.Exec(ctx, "FROM broken")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateView_AggregatedSales(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()
	ctx := context.Background()

	_, err := db.ExecScript(ctx, `
		CREATE TABLE sales AS SELECT 1::INTEGER AS order_id, 2::INTEGER AS quantity, '9.99' AS price, '1 Main St, Boston, MA 02215' AS purchase_address;
		CREATE VIEW by_city AS SELECT order_id, COUNT(1) AS nb_orders, str_split(purchase_address, ',')[2] AS city FROM sales GROUP BY ALL;
	`)
	require.NoError(t, err)

	df, err := db.Exec(ctx, "FROM by_city")
	require.NoError(t, err)
	require.Equal(t, " Boston", df.Value(0, "city"))
	require.Equal(t, int64(1), df.Value(0, "nb_orders"))

	_, err = db.Exec(ctx, "CREATE OR REPLACE VIEW aggregated_sales AS SELECT order_id, COUNT(1) as nb_orders, str_split(purchase_address, ',')[2] AS city, SUM(quantity * price_each) AS revenue FROM sales GROUP BY ALL")
	require.ErrorIs(t, err, query.ErrColumnNotFound)
}

func TestDrop(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()
	ctx := context.Background()

	_, err := db.ExecScript(ctx, "CREATE TABLE t AS SELECT 1 AS x; CREATE VIEW v AS FROM t")
	require.NoError(t, err)

	_, err = db.Exec(ctx, "DROP VIEW t")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = db.Exec(ctx, "DROP TABLE v")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = db.Exec(ctx, "DROP VIEW v")
	require.NoError(t, err)
	_, err = db.Exec(ctx, "DROP TABLE t")
	require.NoError(t, err)

	_, err = db.Exec(ctx, "DROP TABLE t")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = db.Exec(ctx, "DROP TABLE IF EXISTS t")
	require.NoError(t, err)
}

func TestDescribeAndShowTables(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.Register("df_view", ordersFrame()))
	_, err := db.Exec(ctx, "CREATE VIEW v AS SELECT order_id * 2 AS doubled FROM df_view")
	require.NoError(t, err)

	desc, err := db.Exec(ctx, "DESCRIBE df_view")
	require.NoError(t, err)
	require.Equal(t, []string{"column_name", "column_type", "null"}, desc.ColumnNames())
	require.Equal(t, 2, desc.Len())
	require.Equal(t, "order_id", desc.Value(0, "column_name"))
	require.Equal(t, "BIGINT", desc.Value(0, "column_type"))

	desc, err = db.Exec(ctx, "DESCRIBE v")
	require.NoError(t, err)
	require.Equal(t, "doubled", desc.Value(0, "column_name"))
	require.Equal(t, "BIGINT", desc.Value(0, "column_type"))

	desc, err = db.Exec(ctx, "DESCRIBE SELECT product FROM df_view")
	require.NoError(t, err)
	require.Equal(t, "VARCHAR", desc.Value(0, "column_type"))

	_, err = db.Exec(ctx, "DESCRIBE missing")
	require.ErrorIs(t, err, ErrNotFound)

	tables, err := db.Exec(ctx, "SHOW TABLES")
	require.NoError(t, err)
	require.Equal(t, 2, tables.Len())
	require.Equal(t, "df_view", tables.Value(0, "name"))
	require.Equal(t, "v", tables.Value(1, "name"))
}

func TestExecScript(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()

	results, err := db.ExecScript(context.Background(), "CREATE TABLE t AS SELECT 1 AS x; SELECT x + 1 AS y FROM t;")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(2), results[1].Value(0, "y"))

	_, err = db.ExecScript(context.Background(), "SELECT 1; SELEC 2")
	require.ErrorIs(t, err, query.ErrSyntax)
}

func TestClose(t *testing.T) {
	t.Parallel()
	db := Open()
	require.NoError(t, db.Close())
	require.ErrorIs(t, db.Close(), ErrClosed)

	_, err := db.Exec(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, db.Register("df", ordersFrame()), ErrClosed)
}

func TestExec_Cancelled(t *testing.T) {
	t.Parallel()
	db := Open()
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := db.Exec(ctx, "SELECT 1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentReaders(t *testing.T) {
	t.Parallel()
	db := Open(WithWorkers(4))
	defer db.Close()
	require.NoError(t, db.Register("orders", ordersFrame()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			df, err := db.Exec(context.Background(), "SELECT COUNT(order_id) FROM orders")
			if err == nil && df.Len() == 1 {
				return
			}
			t.Errorf("concurrent query failed: %v", err)
		}()
	}
	wg.Wait()
}
