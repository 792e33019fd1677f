// Command smartspend-chart builds the earnings-vs-spending chart model from
// two JSON files of transactions and prints it as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"smartspend/internal/core"
	"smartspend/internal/series"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("smartspend-chart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	earningsPath := fs.String("earnings", "", "JSON file with the earning transactions")
	spendingPath := fs.String("spending", "", "JSON file with the spending transactions")
	pretty := fs.Bool("pretty", false, "indent the output")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *earningsPath == "" || *spendingPath == "" {
		fmt.Fprintln(stderr, "both -earnings and -spending are required")
		fs.Usage()
		return 2
	}

	earnings, err := readTransactions(*earningsPath)
	if err != nil {
		fmt.Fprintf(stderr, "read earnings: %v\n", err)
		return 1
	}
	spending, err := readTransactions(*spendingPath)
	if err != nil {
		fmt.Fprintf(stderr, "read spending: %v\n", err)
		return 1
	}

	chart, err := series.BuildChart(earnings, spending)
	if err != nil {
		fmt.Fprintf(stderr, "build chart: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(chart); err != nil {
		fmt.Fprintf(stderr, "write chart: %v\n", err)
		return 1
	}
	return 0
}

// readTransactions decodes a JSON array of transactions. "-" reads stdin.
func readTransactions(path string) ([]core.Transaction, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var txs []core.Transaction
	if err := dec.Decode(&txs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return txs, nil
}
