package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	cfg.DataBackend = config.BackendSQLite
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "cli.db")
	cfg.AMQPURL = ""
	return cfg
}

func TestRun_Commands(t *testing.T) {
	cfg := testConfig(t)

	steps := []struct {
		cmd      string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{cmd: "create", wantOut: "Created account 1"},
		{cmd: "tx", args: []string{"-account", "1", "-type", "EarningMoney", "-amount", "100", "-product", "Salary"}, wantOut: "balance 100.00"},
		{cmd: "tx", args: []string{"-account", "1", "-type", "Spending", "-amount", "12,50", "-product", "Lunch"}, wantOut: "balance 87.50"},
		{cmd: "tx", args: []string{"-type", "Bills", "-amount", "5"}, wantOut: "Created account 2"},
		{cmd: "balance", args: []string{"-account", "1"}, wantOut: "87.50"},
		{cmd: "recent", args: []string{"-account", "1", "-limit", "1"}, wantOut: "Lunch"},
		{cmd: "tx", args: []string{"-account", "1", "-type", "Gift", "-amount", "5"}, wantCode: 1, wantErr: "invalid spending type"},
		{cmd: "tx", args: []string{"-account", "1", "-type", "Bills", "-amount", "-5"}, wantCode: 1, wantErr: "invalid amount"},
		{cmd: "balance", args: []string{"-account", "9"}, wantCode: 1, wantErr: "account not found"},
		{cmd: "recent", wantCode: 1, wantErr: "-account is required"},
		{cmd: "launch", wantCode: 2, wantErr: "Unknown command"},
	}

	for _, s := range steps {
		var stdout, stderr bytes.Buffer
		code := run(s.cmd, s.args, cfg, &stdout, &stderr)
		if code != s.wantCode {
			t.Fatalf("%s %v: exit %d, want %d (stderr: %s)", s.cmd, s.args, code, s.wantCode, stderr.String())
		}
		if s.wantOut != "" && !strings.Contains(stdout.String(), s.wantOut) {
			t.Fatalf("%s %v: stdout %q missing %q", s.cmd, s.args, stdout.String(), s.wantOut)
		}
		if s.wantErr != "" && !strings.Contains(stderr.String(), s.wantErr) {
			t.Fatalf("%s %v: stderr %q missing %q", s.cmd, s.args, stderr.String(), s.wantErr)
		}
	}
}

func TestRun_ZeroAccountOpensNewAccount(t *testing.T) {
	cfg := testConfig(t)
	for _, amount := range []string{"1", "2", "3"} {
		var out, errOut bytes.Buffer
		if code := run("tx", []string{"-account", "0", "-type", "EarningMoney", "-amount", amount}, cfg, &out, &errOut); code != 0 {
			t.Fatalf("tx: %s", errOut.String())
		}
	}

	var out, errOut bytes.Buffer
	if code := run("recent", []string{"-account", "3"}, cfg, &out, &errOut); code != 0 {
		t.Fatalf("recent: %s", errOut.String())
	}
	if !strings.Contains(out.String(), "3.00") || strings.Contains(out.String(), "1.00") {
		t.Fatalf("unexpected listing: %s", out.String())
	}
}
