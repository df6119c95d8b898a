package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/interviews/internal/analytics"
	"github.com/MikeSquared-Agency/interviews/internal/config"
	"github.com/MikeSquared-Agency/interviews/internal/webhook"

	"github.com/spf13/cobra"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "interviews.db"),
		LogLevel:    "error",
	}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
	return out.String()
}

func TestReplayThenStats(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	body := `{"event":"call_ended","call":{"call_id":"replay-1"},"transcript":[{"role":"agent","content":"Ready?"},{"role":"user","content":"Yes"}],"call_duration":61}`
	file := filepath.Join(dir, "body.json")
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	var res webhook.Result
	if err := json.Unmarshal([]byte(run(t, newReplayCmd(&cfg), file)), &res); err != nil {
		t.Fatalf("decode replay output: %v", err)
	}
	if res.Status != webhook.StatusCreated || res.CallID != "replay-1" || res.Utterances != 2 {
		t.Errorf("unexpected replay result %+v", res)
	}

	var stats analytics.Stats
	if err := json.Unmarshal([]byte(run(t, newStatsCmd(&cfg))), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalInterviews != 1 || stats.AverageDuration != 61 || stats.CompletionRate != 100 {
		t.Errorf("unexpected stats %+v", stats)
	}

	var qs []analytics.Question
	if err := json.Unmarshal([]byte(run(t, newQuestionsCmd(&cfg))), &qs); err != nil {
		t.Fatalf("decode questions: %v", err)
	}
	if len(qs) != 1 || qs[0].Question != "Ready?" {
		t.Errorf("unexpected questions %+v", qs)
	}

	out := filepath.Join(dir, "report.xlsx")
	run(t, newExportCmd(&cfg), "--out", out)
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("expected report at %s: %v", out, err)
	}
}

func TestReplay_InvalidBody(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(file, []byte(`{"event":`), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newReplayCmd(&cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{file})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestOpenStore_RequiresURL(t *testing.T) {
	if _, err := openStore(context.Background(), config.Config{}); err == nil {
		t.Error("expected error without DATABASE_URL")
	}
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)
	run(t, newMigrateCmd(&cfg))
}
