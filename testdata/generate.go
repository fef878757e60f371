// Command generate writes a small sample of the monthly sales dataset:
// one CSV per month plus the same orders as a single parquet file.
//
//	go run ./testdata --out dataset
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	flag "github.com/spf13/pflag"
)

type Order struct {
	OrderID  int64   `parquet:"Order ID"`
	Product  string  `parquet:"Product"`
	Quantity int64   `parquet:"Quantity Ordered"`
	Price    float64 `parquet:"Price"`
	Address  string  `parquet:"Purchase Address"`
}

var products = []struct {
	name  string
	price float64
}{
	{"USB-C Charging Cable", 11.95},
	{"Lightning Charging Cable", 14.95},
	{"Wired Headphones", 11.99},
	{"Bose SoundSport Headphones", 99.99},
	{"Google Phone", 600},
	{"Macbook Pro Laptop", 1700},
	{"LG Washing Machine", 600},
}

var cities = []string{
	"New York City, NY 10001",
	"San Francisco, CA 94016",
	"Dallas, TX 75001",
	"Boston, MA 02215",
	"Seattle, WA 98101",
}

var header = []string{"Order ID", "Product", "Quantity Ordered", "Price", "Purchase Address"}

func main() {
	out := flag.String("out", "dataset", "directory to write the sample files to")
	months := flag.Int("months", 3, "number of monthly CSV files")
	rows := flag.Int("rows", 50, "orders per month")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewPCG(2019, 4))
	nextID := int64(176558)
	var all []Order

	for m := 1; m <= *months; m++ {
		orders := make([]Order, *rows)
		for i := range orders {
			p := products[rng.IntN(len(products))]
			orders[i] = Order{
				OrderID:  nextID,
				Product:  p.name,
				Quantity: int64(1 + rng.IntN(3)),
				Price:    p.price,
				Address:  fmt.Sprintf("%d Main St, %s", 1+rng.IntN(999), cities[rng.IntN(len(cities))]),
			}
			nextID++
		}
		all = append(all, orders...)

		path := filepath.Join(*out, fmt.Sprintf("Sales_%02d_2019.csv", m))
		if err := writeCSV(path, orders); err != nil {
			log.Fatal(err)
		}
	}

	if err := writeParquet(filepath.Join(*out, "sales.parquet"), all); err != nil {
		log.Fatal(err)
	}
	log.Printf("Generated %d monthly CSV files and sales.parquet with %d orders in %s", *months, len(all), *out)
}

// writeCSV writes orders the way the raw export looks: every tenth line is
// blank and the header repeats once in the middle of the file.
func writeCSV(path string, orders []Order) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, o := range orders {
		switch {
		case i == len(orders)/2:
			if err := w.Write(header); err != nil {
				return err
			}
		case i%10 == 9:
			if err := w.Write(make([]string, len(header))); err != nil {
				return err
			}
		}
		record := []string{
			fmt.Sprint(o.OrderID),
			o.Product,
			fmt.Sprint(o.Quantity),
			fmt.Sprint(o.Price),
			o.Address,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeParquet(path string, orders []Order) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[Order](f)
	if _, err := writer.Write(orders); err != nil {
		return err
	}
	return writer.Close()
}
