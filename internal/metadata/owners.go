package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

// CreateOwner inserts a new owner with a generated id.
func (s *Store) CreateOwner(ctx context.Context, displayName, plan string) (*catalog.Owner, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New("display name is required")
	}
	if plan == "" {
		plan = "free"
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO owners (id, display_name, plan, created_at) VALUES (?, ?, ?, ?)`,
		id, displayName, strings.ToLower(plan), s.timestamp(),
	); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	return s.Owner(ctx, id)
}

// Owner fetches an owner by id.
func (s *Store) Owner(ctx context.Context, id string) (*catalog.Owner, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id)
	o, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("owner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return o, nil
}

// Owners lists every owner ordered by creation.
func (s *Store) Owners(ctx context.Context) ([]catalog.Owner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []catalog.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// RenameOwner changes the display name. Stored locators are untouched.
func (s *Store) RenameOwner(ctx context.Context, id, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return errors.New("display name is required")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE owners SET display_name = ? WHERE id = ?`, displayName, id)
	if err != nil {
		return fmt.Errorf("rename owner: %w", err)
	}
	return expectOne(res, "owner", id)
}

// SetPlan changes an owner's plan.
func (s *Store) SetPlan(ctx context.Context, id, plan string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE owners SET plan = ? WHERE id = ?`, strings.ToLower(plan), id)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return expectOne(res, "owner", id)
}

// DeleteOwner removes an owner. Its records are left in place.
func (s *Store) DeleteOwner(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	return expectOne(res, "owner", id)
}

// RecordCounts returns the number of records per owner id. Owners without
// records are absent from the map.
func (s *Store) RecordCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner_id, COUNT(1) FROM records GROUP BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			owner string
			n     int
		)
		if err := rows.Scan(&owner, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[owner] = n
	}
	return counts, rows.Err()
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
