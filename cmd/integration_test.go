package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const carsCSV = `brand,price,mileage,fuel_type
Toyota,20000,1000,Petrol
Honda,15000,2000,Diesel
Toyota,22000,1500,Diesel
Ford,18000,3000,Petrol
Honda,16000,2500,Petrol
BMW,40000,500,Diesel
Kia,12000,800,Petrol
Audi,30000,1200,Diesel
Ford,19000,2200,Petrol
Kia,13000,900,Diesel
`

// resetFlags clears values and Changed state that persist across
// invocations of the package-level commands.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args and return its
// stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg, cfgErr = nil, nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// isolate points HOME at a temp dir so no real config is read or written.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestCLI_CleanPreviewAndExports(t *testing.T) {
	home := isolate(t)
	in := writeFile(t, home, "cars.csv", carsCSV)
	csvOut := filepath.Join(home, "out", "cleaned.csv")
	arrowOut := filepath.Join(home, "out", "cleaned.arrow")
	mdOut := filepath.Join(home, "out", "report.md")

	out := runCmd(t, "clean", in, "--rows", "3", "-o", csvOut, "--arrow", arrowOut, "--report", mdOut)
	for _, want := range []string{
		"Rows: 10 | Columns: 4",
		"Original data (first 3 rows)",
		"Cleaned data (first 3 rows)",
		"✅ Uploaded: cars.csv | Cleaned Rows: 6",
		"Categorical columns: brand, fuel_type",
		"Numeric columns: price, mileage",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	b, err := os.ReadFile(csvOut)
	if err != nil {
		t.Fatalf("read cleaned csv: %v", err)
	}
	if lines := strings.Count(string(b), "\n"); lines != 7 {
		t.Fatalf("cleaned csv has %d lines, want 7 (header + 6 rows)", lines)
	}
	if fi, err := os.Stat(arrowOut); err != nil || fi.Size() == 0 {
		t.Fatalf("arrow file missing or empty: %v", err)
	}
	md, err := os.ReadFile(mdOut)
	if err != nil || !strings.Contains(string(md), "[CLEANING]") {
		t.Fatalf("report not written: %v", err)
	}
}

func TestCLI_ChartWritesImage(t *testing.T) {
	home := isolate(t)
	in := writeFile(t, home, "cars.csv", carsCSV)

	svg := filepath.Join(home, "bar.svg")
	out := runCmd(t, "chart", in, "--kind", "bar", "--x", "brand", "--y", "price", "-o", svg)
	if !strings.Contains(out, "price by brand (6 rows)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	b, err := os.ReadFile(svg)
	if err != nil || !strings.Contains(string(b), "<svg") {
		t.Fatalf("svg not written: %v", err)
	}

	png := filepath.Join(home, "pie.img")
	runCmd(t, "chart", in, "--kind", "pie", "--x", "fuel_type", "--format", "png", "--rows", "4", "-o", png)
	b, err = os.ReadFile(png)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("png not written: %v", err)
	}
}

func TestCLI_ChartEverythingCleanedAway(t *testing.T) {
	home := isolate(t)
	in := writeFile(t, home, "e2e.csv", "brand,price\nToyota,20000\nToyota,20000\nHonda,\nFord,999999\n")
	img := filepath.Join(home, "never.png")

	out := runCmd(t, "chart", in, "--x", "brand", "--y", "price", "-o", img)
	if !strings.Contains(out, "Cleaned Rows: 0") || !strings.Contains(out, "Upload data and select fields to generate charts.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(img); !os.IsNotExist(err) {
		t.Fatalf("no image should be written, stat err = %v", err)
	}
}

func TestCLI_ChartRejectsBadSelection(t *testing.T) {
	home := isolate(t)
	in := writeFile(t, home, "cars.csv", carsCSV)

	if _, err := execCmd("chart", in, "--kind", "box", "--x", "brand", "--y", "fuel_type", "-o", filepath.Join(home, "x.png")); err == nil || !strings.Contains(err.Error(), "invalid y") {
		t.Fatalf("expected invalid y, got %v", err)
	}
	if _, err := execCmd("chart", in, "--kind", "line", "--x", "brand"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func brandCSV() string {
	var b strings.Builder
	b.WriteString("brand,price,mileage,fuel_type,transmission\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "Toyota,%d,%d,Petrol,Manual\n", 20000+i*10, 1000+i)
		fmt.Fprintf(&b, "Honda,%d,%d,Diesel,Automatic\n", 30000+i*10, 5000+i)
	}
	return b.String()
}

func TestCLI_TrainThenPredict(t *testing.T) {
	home := isolate(t)
	in := writeFile(t, home, "brands.csv", brandCSV())
	model := filepath.Join(home, "model.gob")

	out := runCmd(t, "train", in, "--model", model, "--trees", "10")
	for _, want := range []string{"Encoded target sample:", "Train accuracy:", "Test accuracy:", "saved to " + model} {
		if !strings.Contains(out, want) {
			t.Fatalf("train output missing %q:\n%s", want, out)
		}
	}

	rows := writeFile(t, home, "new.csv", "price,mileage,fuel_type,transmission\n20010,1001,Petrol,Manual\n30100,5004,Diesel,Automatic\n")
	out = runCmd(t, "predict", rows, "--model", model)
	if !strings.Contains(out, "predicted_brand") || !strings.Contains(out, "| Toyota |") || !strings.Contains(out, "| Honda |") {
		t.Fatalf("unexpected predictions:\n%s", out)
	}

	bad := writeFile(t, home, "bad.csv", "price,mileage,fuel_type,transmission\n20010,1001,Hydrogen,Manual\n")
	if _, err := execCmd("predict", bad, "--model", model); err == nil || !strings.Contains(err.Error(), "Hydrogen") {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)

	runCmd(t, "config", "set", "display_rows", "7")
	runCmd(t, "config", "set", "categorical_features", "fuel_type, gearbox")
	if _, err := os.Stat(filepath.Join(home, ".cardash", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "display_rows: 7") || !strings.Contains(out, "categorical_features: fuel_type,gearbox") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := execCmd("config", "set", "test_size", "1.5"); err == nil {
		t.Fatalf("expected invalid test_size error")
	}
	if _, err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
