package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/law-makers/labscrape/internal/app"
	"github.com/law-makers/labscrape/internal/config"
	"github.com/law-makers/labscrape/internal/dataset"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/pkg/models"
)

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four\n- item stays whole even when long\n\nsecond paragraph", 10)
	want := "one two\nthree four\n- item stays whole even when long\n\nsecond\nparagraph"
	if got != want {
		t.Errorf("wrapText =\n%q\nwant\n%q", got, want)
	}
}

func TestPrintFlagsTo(t *testing.T) {
	var buf bytes.Buffer
	printFlagsTo(&buf, "      --limit int   Maximum rows\n                    continued\n")
	out := buf.String()
	if !strings.Contains(out, "--limit int") || !strings.Contains(out, "Maximum rows") || !strings.Contains(out, "continued") {
		t.Errorf("Unexpected flag output %q", out)
	}
}

func TestHelpListsCommands(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	customHelpFunc(rootCmd, nil)
	out := buf.String()
	for _, name := range []string{"summary", "detail", "clean", "run", "export", "proxies", "transfer", "creds"} {
		if !strings.Contains(out, name) {
			t.Errorf("Help is missing command %q", name)
		}
	}
	if !strings.Contains(out, "--store") {
		t.Error("Help is missing global flags")
	}
}

func TestSetApp(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	if GetAppFromCmd(cmd) != nil {
		t.Fatal("Expected no app on a fresh command")
	}
	if _, err := requireApp(cmd); err == nil {
		t.Error("Expected requireApp to fail without an app")
	}

	a := &app.Application{}
	SetApp(cmd, a)
	if GetAppFromCmd(cmd) != a {
		t.Error("Expected stored app")
	}
}

func TestFatal(t *testing.T) {
	ctx := reqctx.WithRun(context.Background(), "run")
	if fatal(ctx, nil) {
		t.Error("nil is not fatal")
	}
	if fatal(ctx, errors.Join(fmt.Errorf("tab Edible: timeout"))) {
		t.Error("Page errors should not stop later passes")
	}
	if !fatal(ctx, reqctx.NewRunError(ctx, errors.New("disk full"))) {
		t.Error("Store errors should stop later passes")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if !fatal(cancelled, context.Canceled) {
		t.Error("Cancellation should stop later passes")
	}
}

func TestShowProgress_JSONLogs(t *testing.T) {
	cfg := config.Default()
	cfg.JSONLog = true
	if showProgress(cfg) {
		t.Error("Expected no progress bar with JSON logs")
	}
}

func TestExecute_CleanAndExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lab.db")
	outPath := filepath.Join(dir, "clean.json")

	st, err := app.OpenStore(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	d := models.NewDocument()
	d.Set(models.FieldSampleName, "Blue Dream")
	d.Set(models.FieldType, "flower")
	d.Set(dataset.GateField, 1.2)
	st.Collection(models.CollectionDetail).InsertOne(context.Background(), d)
	st.Close()

	rootCmd.SetArgs([]string{"clean", "--store", dbPath, "-q"})
	if code := Execute(context.Background()); code != 0 {
		t.Fatalf("clean exited with %d", code)
	}

	rootCmd.SetArgs([]string{"export", "--store", dbPath, "-q", "--output", outPath})
	if code := Execute(context.Background()); code != 0 {
		t.Fatalf("export exited with %d", code)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `"Blue Dream"`) {
		t.Errorf("Unexpected export %s", data)
	}
}
