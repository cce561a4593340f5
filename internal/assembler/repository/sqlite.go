package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bim-gateway/internal/assembler/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the embedded migrations in file name order.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save stores a model record. CreatedAt is filled in when zero.
func (r *Repository) Save(ctx context.Context, rec *models.ModelRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO models (id, name, elements, property_sets, ifc, mesh, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `,
		rec.ID,
		rec.Name,
		rec.Elements,
		rec.PropertySets,
		rec.IFC,
		rec.Mesh,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert model %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.ModelRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, elements, property_sets, ifc, mesh, created_at
        FROM models
        WHERE id = ?
    `, id)

	rec, err := scanRecord(row.Scan, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("model %s: %w", id, models.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// List returns record metadata, newest first. Payload columns are left empty.
func (r *Repository) List(ctx context.Context, limit int) ([]models.ModelRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, elements, property_sets, created_at
        FROM models
        ORDER BY created_at DESC, id
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	out := []models.ModelRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(scan func(dest ...any) error, withPayload bool) (*models.ModelRecord, error) {
	var (
		rec       models.ModelRecord
		createdAt string
	)

	var err error
	if withPayload {
		err = scan(&rec.ID, &rec.Name, &rec.Elements, &rec.PropertySets, &rec.IFC, &rec.Mesh, &createdAt)
	} else {
		err = scan(&rec.ID, &rec.Name, &rec.Elements, &rec.PropertySets, &createdAt)
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("model %s created_at: %w", rec.ID, err)
	}
	return &rec, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite opens (creating if needed) the database file at dbPath.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
