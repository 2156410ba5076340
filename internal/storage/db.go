package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tkbconv/internal"
	"tkbconv/internal/calendar"
	"tkbconv/internal/util"
)

type DB struct {
	conn *sql.DB
}

// RunInfo describes where a batch came from.
type RunInfo struct {
	Input   string
	Sheet   string
	Profile string
}

type RunRow struct {
	RunID     string
	Input     string
	Sheet     string
	Profile   string
	Total     int
	Kept      int
	Sentinel  int
	Failed    int
	Skipped   map[string]int
	CreatedAt string
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  runId TEXT PRIMARY KEY,
  input TEXT NOT NULL,
  sheet TEXT,
  profile TEXT,
  total INTEGER NOT NULL,
  kept INTEGER NOT NULL,
  sentinel INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  skippedJson TEXT NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  seq INTEGER NOT NULL,
  line INTEGER NOT NULL,
  rowNumber TEXT NOT NULL,
  className TEXT NOT NULL,
  classCode TEXT NOT NULL,
  subjectName TEXT NOT NULL,
  subjectCode TEXT NOT NULL,
  instructor TEXT NOT NULL,
  cohort TEXT NOT NULL,
  major TEXT NOT NULL,
  faculty TEXT NOT NULL,
  department TEXT NOT NULL,
  courseGroup TEXT NOT NULL,
  practiceGroup TEXT NOT NULL,
  credits REAL,
  creditsRaw TEXT NOT NULL,
  weekday TEXT NOT NULL,
  startPeriod TEXT NOT NULL,
  periodCount TEXT NOT NULL,
  timeSlot TEXT NOT NULL,
  room TEXT NOT NULL,
  building TEXT NOT NULL,
  location TEXT NOT NULL,
  startDate TEXT NOT NULL,
  endDate TEXT NOT NULL,
  weeksJson TEXT NOT NULL,
  weekList TEXT NOT NULL,
  activeColumns TEXT NOT NULL,
  notes TEXT NOT NULL,
  rawPeriodsJson TEXT NOT NULL,
  sentinel INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  UNIQUE(runId, seq),
  FOREIGN KEY(runId) REFERENCES runs(runId)
);
CREATE INDEX IF NOT EXISTS idx_records_subjectCode ON records(subjectCode);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveRun stores the batch summary and its records in one transaction and
// marks it as the last run.
func (d *DB) SaveRun(info RunInfo, summary internal.BatchSummary, records []internal.NormalizedRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	skipped := make(map[string]int, len(summary.Skipped))
	for status, n := range summary.Skipped {
		skipped[string(status)] = n
	}
	skippedJSON, _ := json.Marshal(skipped)
	if _, err := tx.Exec(`
INSERT INTO runs (runId, input, sheet, profile, total, kept, sentinel, failed, skippedJson, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, info.Input, info.Sheet, info.Profile,
		summary.Total, summary.Kept, summary.Sentinel, summary.Failed,
		string(skippedJSON), summary.Duration.Milliseconds(),
	); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO records (runId, seq, ` + strings.Join(recordColumns, ", ") + `)
VALUES (?, ?` + strings.Repeat(", ?", len(recordColumns)) + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		args := append([]any{summary.RunID, i + 1}, recordValues(r)...)
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES ('last_run', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, summary.RunID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListRuns() ([]RunRow, error) {
	rows, err := d.conn.Query(`
SELECT runId, input, sheet, profile, total, kept, sentinel, failed, skippedJson, createdAt
FROM runs ORDER BY createdAt, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var skippedJSON string
		if err := rows.Scan(&r.RunID, &r.Input, &r.Sheet, &r.Profile, &r.Total, &r.Kept, &r.Sentinel, &r.Failed, &skippedJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(skippedJSON), &r.Skipped)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRecords reads the records of one run back in their output order.
func (d *DB) ListRecords(runID string) ([]internal.NormalizedRecord, error) {
	rows, err := d.conn.Query(`SELECT `+strings.Join(recordColumns, ", ")+`
FROM records WHERE runId = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.NormalizedRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// recordColumns is the column order shared by recordValues and scanRecord.
var recordColumns = []string{
	"line", "rowNumber", "className", "classCode", "subjectName", "subjectCode", "instructor",
	"cohort", "major", "faculty", "department", "courseGroup", "practiceGroup",
	"credits", "creditsRaw", "weekday", "startPeriod", "periodCount", "timeSlot",
	"room", "building", "location", "startDate", "endDate", "weeksJson", "weekList",
	"activeColumns", "notes", "rawPeriodsJson", "sentinel", "error",
}

func recordValues(r internal.NormalizedRecord) []any {
	weeksJSON, _ := json.Marshal(r.Weeks)
	rawJSON, _ := json.Marshal(r.RawPeriods)
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	return []any{
		r.Line, r.RowNumber, r.ClassName, r.ClassCode, r.SubjectName, r.SubjectCode, r.Instructor,
		r.Cohort, r.Major, r.Faculty, r.Department, r.CourseGroup, r.PracticeGroup,
		r.Credits, r.CreditsRaw, r.Weekday, r.StartPeriod, r.PeriodCount, r.TimeSlot,
		r.Room, r.Building, r.Location, calendar.Format(r.Start), calendar.Format(r.End),
		string(weeksJSON), r.WeekList, r.ActiveColumns, r.Notes, string(rawJSON), r.Sentinel, errText,
	}
}

func scanRecord(rows *sql.Rows) (internal.NormalizedRecord, error) {
	var r internal.NormalizedRecord
	var credits sql.NullFloat64
	var start, end, weeksJSON, rawJSON string
	var errText sql.NullString
	if err := rows.Scan(
		&r.Line, &r.RowNumber, &r.ClassName, &r.ClassCode, &r.SubjectName, &r.SubjectCode, &r.Instructor,
		&r.Cohort, &r.Major, &r.Faculty, &r.Department, &r.CourseGroup, &r.PracticeGroup,
		&credits, &r.CreditsRaw, &r.Weekday, &r.StartPeriod, &r.PeriodCount, &r.TimeSlot,
		&r.Room, &r.Building, &r.Location, &start, &end,
		&weeksJSON, &r.WeekList, &r.ActiveColumns, &r.Notes, &rawJSON, &r.Sentinel, &errText,
	); err != nil {
		return r, err
	}
	if credits.Valid {
		r.Credits = util.FloatPtr(credits.Float64)
	}
	r.Start, _ = parseStoredDate(start)
	r.End, _ = parseStoredDate(end)
	_ = json.Unmarshal([]byte(weeksJSON), &r.Weeks)
	_ = json.Unmarshal([]byte(rawJSON), &r.RawPeriods)
	r.Error = errText.String
	return r, nil
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseStoredDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return calendar.ParseDate(v)
}
