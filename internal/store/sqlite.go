package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/example/dts-backend/internal/model"
)

type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entry_date TEXT NOT NULL DEFAULT '',
  job_no TEXT NOT NULL DEFAULT '',
  make TEXT NOT NULL DEFAULT '',
  model_no TEXT NOT NULL DEFAULT '',
  serial_no TEXT NOT NULL DEFAULT '',
  fault TEXT NOT NULL DEFAULT '',
  client_name TEXT NOT NULL DEFAULT '',
  input_choke TEXT NOT NULL DEFAULT '',
  output_choke TEXT NOT NULL DEFAULT '',
  choke TEXT NOT NULL DEFAULT '',
  control_card TEXT NOT NULL DEFAULT '',
  control_card_supply TEXT NOT NULL DEFAULT '',
  fan TEXT NOT NULL DEFAULT '',
  power_card TEXT NOT NULL DEFAULT '',
  checked_by TEXT NOT NULL DEFAULT '',
  repaired_by TEXT NOT NULL DEFAULT '',
  repair_date TEXT NOT NULL DEFAULT '',
  final_remarks TEXT NOT NULL DEFAULT '',
  warranty_start TEXT NOT NULL DEFAULT '',
  warranty_end TEXT NOT NULL DEFAULT '',
  inspection_report TEXT NOT NULL DEFAULT '',
  service_report TEXT NOT NULL DEFAULT '',
  testing_report TEXT NOT NULL DEFAULT '',
  warranty_report TEXT NOT NULL DEFAULT '',
  dispatch_date TEXT NOT NULL DEFAULT '',
  job_status TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

const jobColumns = `id, entry_date, job_no, make, model_no, serial_no, fault, client_name,
  input_choke, output_choke, choke, control_card, control_card_supply, fan, power_card,
  checked_by, repaired_by, repair_date, final_remarks, warranty_start, warranty_end,
  inspection_report, service_report, testing_report, warranty_report, dispatch_date,
  job_status, created_at`

func (s *SQLite) CreateJob(ctx context.Context, in model.Intake) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (entry_date, job_no, make, model_no, serial_no, fault, client_name, job_status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.EntryDate,
		in.JobNo,
		in.Make,
		in.ModelNo,
		in.SerialNo,
		in.Fault,
		in.ClientName,
		string(model.StatusReceived),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) GetJob(ctx context.Context, id int64) (model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id,
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, model.ErrNotFound
		}
		return model.Job{}, err
	}
	return job, nil
}

func (s *SQLite) ListJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// UpdateFields applies a technician patch. Patch keys are external
// field names; only keys present in TechFields are written, in table
// order. Returns ErrNoFields when nothing in the patch is recognized
// and ErrNotFound when no row has the given id.
func (s *SQLite) UpdateFields(ctx context.Context, id int64, patch map[string]string) error {
	b := sq.Update("jobs")
	n := 0
	for _, f := range TechFields {
		if v, ok := patch[f.External]; ok {
			b = b.Set(f.Column, v)
			n++
		}
	}
	if n == 0 {
		return model.ErrNoFields
	}

	query, args, err := b.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("job update failed: %v (sql=%q args=%v)", err, query, args)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SaveReport stamps the four report sections plus the dispatch date
// and forces the job to COMPLETED. The only writer of report fields.
func (s *SQLite) SaveReport(ctx context.Context, id int64, sec model.Sections, dispatchDate string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET
           inspection_report = ?,
           service_report = ?,
           testing_report = ?,
           warranty_report = ?,
           dispatch_date = ?,
           job_status = ?
         WHERE id = ?`,
		sec.Inspection,
		sec.Service,
		sec.Testing,
		sec.Warranty,
		dispatchDate,
		string(model.StatusCompleted),
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (model.Job, error) {
	var j model.Job
	var status string
	err := row.Scan(
		&j.ID,
		&j.EntryDate, &j.JobNo, &j.Make, &j.ModelNo, &j.SerialNo, &j.Fault, &j.ClientName,
		&j.InputChoke, &j.OutputChoke, &j.Choke, &j.ControlCard, &j.ControlCardSupply, &j.Fan, &j.PowerCard,
		&j.CheckedBy, &j.RepairedBy, &j.RepairDate, &j.FinalRemarks, &j.WarrantyStart, &j.WarrantyEnd,
		&j.InspectionReport, &j.ServiceReport, &j.TestingReport, &j.WarrantyReport, &j.DispatchDate,
		&status, &j.CreatedAt,
	)
	if err != nil {
		return model.Job{}, err
	}
	j.Status = model.Status(status)
	return j, nil
}
