package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stockctl/domain"
)

// runFresh executes args on a new App built from flags alone.
func runFresh(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	a := New()
	var out, errOut bytes.Buffer
	a.Root().SetOut(&out)
	a.Root().SetErr(&errOut)
	a.Root().SetIn(strings.NewReader(""))
	err := a.Execute(context.Background(), args)
	if cerr := a.Close(); cerr != nil {
		t.Fatalf("close failed: %v", cerr)
	}
	return out.String(), errOut.String(), err
}

func TestSetup_SQLitePersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data", "inventory.db")
	logFile := filepath.Join(dir, "inventory.log")
	common := []string{"--db", db, "--log-file", logFile, "--log-level", "debug"}

	_, _, err := runFresh(t, append(common, "add", "--sku", "P001", "--name", "A", "--category", "C", "--price", "10", "--quantity", "5")...)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, _, err = runFresh(t, append(common, "sell", "P001", "--quantity", "2")...)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	out, _, err := runFresh(t, append(common, "list", "--output", "json")...)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var products []domain.Product
	if err := json.Unmarshal([]byte(out), &products); err != nil {
		t.Fatalf("invalid list output: %v\n%s", err, out)
	}
	if len(products) != 1 || products[0].Quantity != 3 {
		t.Fatalf("unexpected products: %+v", products)
	}

	b, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(b), "sale recorded") {
		t.Fatalf("log file missing sale entry:\n%s", b)
	}
}

func TestSetup_MemoryStoreFromEnv(t *testing.T) {
	t.Setenv("STOCKCTL_STORE", "memory")
	t.Setenv("STOCKCTL_LOG_FILE", "")
	out, _, err := runFresh(t, "dashboard", "--output", "json")
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	var d domain.Dashboard
	if err := json.Unmarshal([]byte(out), &d); err != nil || d != (domain.Dashboard{}) {
		t.Fatalf("unexpected dashboard %q: %v", out, err)
	}
}

func TestSetup_ConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"unknown store kind", []string{"--store", "unknown", "--log-file", "", "list"}},
		{"vat default out of range", []string{"--store", "memory", "--log-file", "", "--vat-default", "3", "list"}},
		{"file store without path", []string{"--store", "file", "--store-file", "", "--log-file", "", "list"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := runFresh(t, tc.args...)
			if err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
			if domain.IsDomainError(err) {
				t.Fatalf("configuration problems are not domain errors: %v", err)
			}
			if !strings.HasPrefix(stderr, "error: ") {
				t.Fatalf("unexpected stderr: %q", stderr)
			}
		})
	}
}

func TestSetup_FileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	common := []string{"--store", "file", "--store-file", path, "--log-file", ""}

	if _, _, err := runFresh(t, append(common, "add", "--sku", "F1", "--name", "f", "--category", "c", "--quantity", "2")...); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	out, _, err := runFresh(t, append(common, "list")...)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "F1") {
		t.Fatalf("file store did not persist:\n%s", out)
	}
}
