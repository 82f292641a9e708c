package show

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// Repository defines the interface for cue list persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	List(ctx context.Context) ([]*cue.CueList, error)
	Get(ctx context.Context, number int) (*cue.CueList, error)

	// Save inserts the list or replaces the stored list with the same number.
	Save(ctx context.Context, list *cue.CueList) error
	Delete(ctx context.Context, number int) error
}

// SQLiteRepository implements Repository using SQLite.
//
// Each row holds one cue list as its exchange document, so the stored form is
// exactly what the import/export endpoints accept and produce.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves all cue lists ordered by number.
func (r *SQLiteRepository) List(ctx context.Context) ([]*cue.CueList, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT number, document FROM cue_lists ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("querying cue lists: %w", err)
	}
	defer rows.Close()

	var lists []*cue.CueList
	for rows.Next() {
		list, scanErr := scanCueList(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning cue list: %w", scanErr)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cue lists: %w", err)
	}
	return lists, nil
}

// Get retrieves a cue list by number.
func (r *SQLiteRepository) Get(ctx context.Context, number int) (*cue.CueList, error) {
	row := r.db.QueryRowContext(ctx, `SELECT number, document FROM cue_lists WHERE number = ?`, number)
	list, err := scanCueList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCueListNotFound
		}
		return nil, fmt.Errorf("querying cue list %d: %w", number, err)
	}
	return list, nil
}

// Save upserts a cue list. created_at is kept on replace.
func (r *SQLiteRepository) Save(ctx context.Context, list *cue.CueList) error {
	doc, err := cue.EncodeCueList(list)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO cue_lists (number, document, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, list.Number, string(doc), now, now); err != nil {
		return fmt.Errorf("saving cue list %d: %w", list.Number, err)
	}
	return nil
}

// Delete removes a cue list by number.
func (r *SQLiteRepository) Delete(ctx context.Context, number int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cue_lists WHERE number = ?", number)
	if err != nil {
		return fmt.Errorf("deleting cue list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCueListNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCueList(scanner rowScanner) (*cue.CueList, error) {
	var number int
	var doc string
	if err := scanner.Scan(&number, &doc); err != nil {
		return nil, err
	}

	list, err := cue.DecodeCueList([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decoding cue list %d: %w", number, err)
	}
	if list.Number != number {
		return nil, fmt.Errorf("cue list row %d holds document for list %d", number, list.Number)
	}
	return list, nil
}
