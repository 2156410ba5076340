package pipeline

import (
	"strings"
	"testing"
)

func TestReadHTML(t *testing.T) {
	html := `<html><body>
<table><tr><td>Học kỳ I</td></tr></table>
<table>
<tr><th>Lớp</th><th>Tên môn học/ học phần</th><th colspan="2">08/25</th></tr>
<tr><td>K65A</td><td>Giải   tích 1</td><td>x</td><td></td></tr>
<tr><td></td><td></td><td></td><td></td></tr>
</table></body></html>`

	table, err := ReadHTML(strings.NewReader(html), ReadOptions{HeaderProbe: "Tên môn học/ học phần"})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Headers) != 4 || table.Headers[3] != "Unnamed: 3" {
		t.Fatalf("headers=%q", table.Headers)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("len=%d", len(table.Rows))
	}
	if table.Rows[0].Cells["Tên môn học/ học phần"] != "Giải tích 1" || table.Rows[0].Cells["08/25"] != "x" {
		t.Fatalf("cells=%v", table.Rows[0].Cells)
	}
}

func TestReadCSV(t *testing.T) {
	body := "\ufeffLớp,Tên môn học/ học phần,Thứ\nK65A,Giải tích 1,2\n,,\nK65B,\"Vật lý, đại cương\",3\n"
	table, err := ReadCSV(strings.NewReader(body), ReadOptions{HeaderRow: 1})
	if err != nil {
		t.Fatal(err)
	}
	if table.Headers[0] != "Lớp" {
		t.Fatalf("bom not stripped: %q", table.Headers[0])
	}
	if len(table.Rows) != 2 || table.Rows[1].Line != 4 {
		t.Fatalf("rows=%+v", table.Rows)
	}
	if table.Rows[1].Cells["Tên môn học/ học phần"] != "Vật lý, đại cương" {
		t.Fatalf("cells=%v", table.Rows[1].Cells)
	}
}
