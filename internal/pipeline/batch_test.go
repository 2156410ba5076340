package pipeline

import (
	"context"
	"fmt"
	"testing"

	"tkbconv/internal"
	"tkbconv/internal/logging"
)

type recordingObserver struct {
	lines   []int
	summary internal.BatchSummary
	done    int
}

func (o *recordingObserver) RowProcessed(res internal.RowResult) { o.lines = append(o.lines, res.Line) }
func (o *recordingObserver) BatchDone(s internal.BatchSummary)   { o.summary = s; o.done++ }

func batchRows(n int) []internal.Row {
	rows := make([]internal.Row, 0, n)
	for i := 0; i < n; i++ {
		cells := fullRow()
		cells["Tên môn học/ học phần"] = fmt.Sprintf("Môn %03d", i)
		if i%10 == 3 {
			delete(cells, "Tên môn học/ học phần")
		}
		rows = append(rows, internal.Row{Line: i + 10, Cells: cells})
	}
	return rows
}

func TestRunKeepsOrderWithWorkers(t *testing.T) {
	n := testNormalizer(t, nil)
	rows := batchRows(200)
	obs := &recordingObserver{}

	ctx := logging.WithRunID(context.Background(), "run-42")
	out, err := Run(ctx, n, rows, RunOptions{Workers: 8, Observers: []Observer{obs}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Records) != 180 {
		t.Fatalf("len=%d", len(out.Records))
	}
	prev := -1
	for _, rec := range out.Records {
		if rec.Line <= prev {
			t.Fatalf("out of order: line %d after %d", rec.Line, prev)
		}
		prev = rec.Line
	}
	if len(obs.lines) != 200 || obs.lines[0] != 10 || obs.lines[199] != 209 {
		t.Fatalf("observer lines=%d", len(obs.lines))
	}
	if obs.done != 1 || obs.summary.RunID != "run-42" || obs.summary.Skipped[internal.RowNoSubject] != 20 {
		t.Fatalf("summary=%+v", obs.summary)
	}
}

func TestRunSequentialMatchesParallel(t *testing.T) {
	n := testNormalizer(t, nil)
	rows := batchRows(50)

	seq, err := Run(context.Background(), n, rows, RunOptions{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	par, err := Run(context.Background(), n, rows, RunOptions{Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(seq.Records) != len(par.Records) {
		t.Fatalf("len %d vs %d", len(seq.Records), len(par.Records))
	}
	for i := range seq.Records {
		if seq.Records[i].SubjectName != par.Records[i].SubjectName {
			t.Fatalf("row %d: %q vs %q", i, seq.Records[i].SubjectName, par.Records[i].SubjectName)
		}
	}
	if seq.Summary.RunID == "" || seq.Summary.RunID == par.Summary.RunID {
		t.Fatalf("run ids %q %q", seq.Summary.RunID, par.Summary.RunID)
	}
}

func TestRunCancelled(t *testing.T) {
	n := testNormalizer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		if _, err := Run(ctx, n, batchRows(5), RunOptions{Workers: workers}); err == nil {
			t.Fatalf("workers=%d: cancelled run succeeded", workers)
		}
	}
}
