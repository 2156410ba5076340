package watcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"tkbconv/internal/config"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestRunCycleConvertsOnce(t *testing.T) {
	tmp := t.TempDir()
	inbox := filepath.Join(tmp, "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	blob := mkXLSX([][]any{
		{"Lớp", "Tên môn học/ học phần", "08/25"},
		{"K65A", "Giải tích 1", "x"},
	})
	if err := os.WriteFile(filepath.Join(inbox, "tkb.xlsx"), blob, 0o644); err != nil {
		t.Fatal(err)
	}
	csvBody := "Lớp,Tên môn học/ học phần,08/25\nK65B,Vật lý,x\n"
	if err := os.WriteFile(filepath.Join(inbox, "tkb.csv"), []byte(csvBody), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "broken.xlsx"), []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	profile, err := config.LoadProfile("")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{WatchDir: inbox, OutputDir: filepath.Join(tmp, "out"), HeaderRow: 1, Workers: 1, WatchIntervalSec: 1}
	svc := NewService(cfg, profile)

	res, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 2 || res.Failed != 1 {
		t.Fatalf("res=%+v", res)
	}
	for _, name := range []string{"tkb_xlsx_normalized.xlsx", "tkb_csv_normalized.xlsx"} {
		if _, err := os.Stat(filepath.Join(tmp, "out", "watch", name)); err != nil {
			t.Fatal(err)
		}
	}

	res, err = svc.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 0 || res.Failed != 0 {
		t.Fatalf("second cycle res=%+v", res)
	}
}

func TestRunCycleMissingDir(t *testing.T) {
	svc := NewService(config.Config{WatchDir: filepath.Join(t.TempDir(), "nope")}, config.Profile{})
	if _, err := svc.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
