package config

import "testing"

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TKB_SHEET", "TKB PHU")
	t.Setenv("TKB_HEADER_ROW", "0")
	t.Setenv("TKB_WORKERS", "-3")
	t.Setenv("TKB_REQUIRE_ACTIVE_PERIOD", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sheet != "TKB PHU" || cfg.HeaderRow != 0 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Workers != 1 {
		t.Fatalf("workers=%d", cfg.Workers)
	}
	if !cfg.RequireActivePeriod {
		t.Fatalf("require active period not read")
	}
}

func TestLoadRejectsNegativeHeaderRow(t *testing.T) {
	t.Setenv("TKB_HEADER_ROW", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
