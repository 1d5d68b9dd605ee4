package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

// deleteChunk bounds the number of ids bound into one DELETE statement.
const deleteChunk = 500

// RecordRefs is the projection the orphan scanners read.
type RecordRefs struct {
	ID       string
	OwnerID  string
	Locators []string
}

// Record fetches a record by id.
func (s *Store) Record(ctx context.Context, id string) (*catalog.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// RecordsByOwner lists an owner's records ordered by creation.
func (s *Store) RecordsByOwner(ctx context.Context, ownerID string) ([]catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []catalog.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// AllRefs returns the id, owner and asset locators of every record.
func (s *Store) AllRefs(ctx context.Context) ([]RecordRefs, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, cover, back_cover, screenshots_json FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list record refs: %w", err)
	}
	defer rows.Close()

	var out []RecordRefs
	for rows.Next() {
		var (
			r                catalog.Record
			cover, backCover sql.NullString
			screenshots      string
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &cover, &backCover, &screenshots); err != nil {
			return nil, fmt.Errorf("scan record refs: %w", err)
		}
		r.Cover, r.BackCover = cover.String, backCover.String
		if r.Screenshots, err = decodeList(screenshots); err != nil {
			return nil, fmt.Errorf("record %s screenshots: %w", r.ID, err)
		}
		out = append(out, RecordRefs{ID: r.ID, OwnerID: r.OwnerID, Locators: r.Locators()})
	}
	return out, rows.Err()
}

// CountByOwner returns how many records an owner has.
func (s *Store) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM records WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// DistinctOwnerIDs returns every owner id referenced by a record.
func (s *Store) DistinctOwnerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM records ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("distinct owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CreateRecord inserts r, assigning its id, version and timestamps.
func (s *Store) CreateRecord(ctx context.Context, r *catalog.Record) error {
	if r == nil {
		return errors.New("record is nil")
	}
	shots, err := encodeList(r.Screenshots)
	if err != nil {
		return fmt.Errorf("encode screenshots: %w", err)
	}

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := s.timestamp()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (
            id, owner_id, title, platform, publisher, release_year,
            cover, back_cover, screenshots_json, version, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id,
		r.OwnerID,
		r.Title,
		r.Platform,
		nullableString(r.Publisher),
		nullableInt(r.ReleaseYear),
		nullableString(r.Cover),
		nullableString(r.BackCover),
		shots,
		ts,
		ts,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	r.ID = id
	r.Version = 1
	r.CreatedAt, _ = parseTimeString(ts)
	r.UpdatedAt = r.CreatedAt
	return nil
}

// UpdateRecord saves r if the stored version still equals r.Version, then
// bumps r.Version. A stale version yields ErrConflict.
func (s *Store) UpdateRecord(ctx context.Context, r *catalog.Record) error {
	if r == nil {
		return errors.New("record is nil")
	}
	return s.update(ctx, r, true)
}

// OverwriteRecord saves r regardless of the stored version (last write
// wins) and bumps the version.
func (s *Store) OverwriteRecord(ctx context.Context, r *catalog.Record) error {
	if r == nil {
		return errors.New("record is nil")
	}
	return s.update(ctx, r, false)
}

func (s *Store) update(ctx context.Context, r *catalog.Record, conditional bool) error {
	shots, err := encodeList(r.Screenshots)
	if err != nil {
		return fmt.Errorf("encode screenshots: %w", err)
	}

	query := `UPDATE records
         SET owner_id = ?, title = ?, platform = ?, publisher = ?, release_year = ?,
             cover = ?, back_cover = ?, screenshots_json = ?, version = version + 1, updated_at = ?
         WHERE id = ?`
	ts := s.timestamp()
	args := []any{
		r.OwnerID,
		r.Title,
		r.Platform,
		nullableString(r.Publisher),
		nullableInt(r.ReleaseYear),
		nullableString(r.Cover),
		nullableString(r.BackCover),
		shots,
		ts,
		r.ID,
	}
	if conditional {
		query += ` AND version = ?`
		args = append(args, r.Version)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.Record(ctx, r.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("record %s at version %d: %w", r.ID, r.Version, ErrConflict)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT version FROM records WHERE id = ?`, r.ID).Scan(&r.Version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	r.UpdatedAt, _ = parseTimeString(ts)
	return nil
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return expectOne(res, "record", id)
}

// DeleteRecords removes exactly the given ids and returns how many existed.
func (s *Store) DeleteRecords(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += deleteChunk {
		end := start + deleteChunk
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return deleted, fmt.Errorf("delete records: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("rows affected: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}
