// Command ledger-verifier audits exported auction data offline. It takes a
// lot's bid history (and optionally its finalize outcome) as served by the
// API, recomputes every fingerprint and checks the ledger invariants.
//
// Exit codes: 0 valid, 1 verification failed, 2 input error.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/openlot-io/openlot/audit"
)

func main() {
	var (
		historyInput = flag.String("history", "", "Bid history JSON (file path or inline JSON)")
		outcomeInput = flag.String("outcome", "", "Finalize outcome JSON with fingerprint (file path or inline JSON)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
	)
	flag.Parse()

	if *historyInput == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: --history is required")
		os.Exit(2)
	}

	var in audit.Input
	if err := readJSONInput(*historyInput, &in.History); err != nil {
		fmt.Fprintf(os.Stderr, "error reading history: %v\n", err)
		os.Exit(2)
	}
	if *outcomeInput != "" {
		var out struct {
			Outcome     json.RawMessage `json:"outcome"`
			Fingerprint string          `json:"fingerprint"`
		}
		if err := readJSONInput(*outcomeInput, &out); err != nil {
			fmt.Fprintf(os.Stderr, "error reading outcome: %v\n", err)
			os.Exit(2)
		}
		if err := json.Unmarshal(out.Outcome, &in.Outcome); err != nil {
			fmt.Fprintf(os.Stderr, "error decoding outcome: %v\n", err)
			os.Exit(2)
		}
		in.OutcomeFingerprint = out.Fingerprint
	}

	report := audit.Verify(in)

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding report: %v\n", err)
			os.Exit(2)
		}
	} else {
		printText(report)
	}

	if !report.IsValid() {
		os.Exit(1)
	}
}

// readJSONInput accepts either a file path or inline JSON.
func readJSONInput(input string, v any) error {
	data := []byte(input)
	if !strings.HasPrefix(strings.TrimSpace(input), "[") &&
		!strings.HasPrefix(strings.TrimSpace(input), "{") {
		var err error
		data, err = os.ReadFile(input)
		if err != nil {
			return err
		}
	}
	return json.Unmarshal(data, v)
}

func printText(r *audit.Report) {
	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "FAIL"
	}
	fmt.Printf("sequence:     %s\n", status(r.SequenceValid))
	fmt.Printf("fingerprints: %s\n", status(r.FingerprintsValid))
	fmt.Printf("placed:       %s\n", status(r.PlacedValid))
	fmt.Printf("lineage:      %s\n", status(r.LineageValid))
	fmt.Printf("outcome:      %s\n", status(r.OutcomeValid))
	for _, d := range r.Details {
		fmt.Printf("  - %s\n", d)
	}
	if r.IsValid() {
		fmt.Println("result: VALID")
	} else {
		fmt.Println("result: INVALID")
	}
}
