// Package main is a helper CLI for preparing and checking watch-list
// address configuration before deployment.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/chainwatch/monitor/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate()
	case "import":
		if len(os.Args) < 3 {
			err = fmt.Errorf("import requires a CSV file argument")
		} else {
			err = runImport(os.Args[2])
		}
	case "export":
		err = runExport()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: addrtool <command>

commands:
  validate          check BTC_ADDRESSES and ETH_ADDRESSES from the environment
  import <csv>      convert a type,address,label CSV into env variable lines
  export            print the environment watch-list as CSV`)
}

// envChains maps env variable prefixes to chains.
var envChains = []struct {
	chain  store.Chain
	envVar string
}{
	{store.ChainBTC, "BTC_ADDRESSES"},
	{store.ChainETH, "ETH_ADDRESSES"},
}

// runValidate checks every configured address and reports per-address
// results. Exits non-zero via the returned error when any is invalid.
func runValidate() error {
	_ = godotenv.Load()

	invalid := 0
	total := 0
	for _, ec := range envChains {
		addrs := splitList(os.Getenv(ec.envVar))
		if len(addrs) == 0 {
			continue
		}

		fmt.Printf("%s (%d addresses)\n", ec.envVar, len(addrs))
		for _, addr := range addrs {
			total++
			if store.ValidAddress(ec.chain, addr) {
				fmt.Printf("  ok      %s\n", store.TruncateAddress(addr))
			} else {
				invalid++
				fmt.Printf("  INVALID %s\n", addr)
			}
		}
	}

	if total == 0 {
		return fmt.Errorf("no addresses configured")
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d addresses invalid", invalid, total)
	}
	fmt.Printf("all %d addresses valid\n", total)
	return nil
}

// runImport reads a CSV with type,address,label columns and prints the
// env variable lines the monitor expects.
func runImport(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("csv has no data rows")
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "address"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("csv missing %q column", required)
		}
	}

	addresses := map[store.Chain][]string{}
	labels := map[store.Chain][]string{}
	for _, row := range rows[1:] {
		chain := store.Chain(strings.ToLower(strings.TrimSpace(row[col["type"]])))
		addr := strings.TrimSpace(row[col["address"]])
		if addr == "" {
			continue
		}
		if chain != store.ChainBTC && chain != store.ChainETH {
			return fmt.Errorf("unknown chain type %q for address %s", chain, addr)
		}
		if !store.ValidAddress(chain, addr) {
			return fmt.Errorf("invalid %s address %s", chain.AssetSymbol(), addr)
		}

		addresses[chain] = append(addresses[chain], addr)
		if li, ok := col["label"]; ok && li < len(row) {
			if label := strings.TrimSpace(row[li]); label != "" {
				labels[chain] = append(labels[chain], addr+":"+label)
			}
		}
	}

	for _, ec := range envChains {
		prefix := strings.ToUpper(string(ec.chain))
		fmt.Printf("%s=%s\n", ec.envVar, strings.Join(addresses[ec.chain], ","))
		fmt.Printf("%s_LABELS=%s\n", prefix, strings.Join(labels[ec.chain], ","))
	}
	return nil
}

// runExport prints the environment watch-list as a type,address,label
// CSV, suitable for round-tripping through import.
func runExport() error {
	_ = godotenv.Load()

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"type", "address", "label"}); err != nil {
		return err
	}

	for _, ec := range envChains {
		labels := parseLabels(os.Getenv(strings.ToUpper(string(ec.chain)) + "_LABELS"))
		addrs := splitList(os.Getenv(ec.envVar))
		sort.Strings(addrs)
		for _, addr := range addrs {
			if err := w.Write([]string{string(ec.chain), addr, labels[addr]}); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLabels parses comma-separated address:label pairs.
func parseLabels(s string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		addr, label, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		addr = strings.TrimSpace(addr)
		label = strings.TrimSpace(label)
		if addr != "" && label != "" {
			labels[addr] = label
		}
	}
	return labels
}
