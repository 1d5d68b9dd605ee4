package metadata

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

const recordColumns = "id, owner_id, title, platform, publisher, release_year, cover, back_cover, screenshots_json, version, created_at, updated_at"

const ownerColumns = "id, display_name, plan, created_at"

type scanner interface{ Scan(dest ...any) error }

func scanRecord(row scanner) (*catalog.Record, error) {
	var (
		r           catalog.Record
		publisher   sql.NullString
		year        sql.NullInt64
		cover       sql.NullString
		backCover   sql.NullString
		screenshots string
		createdRaw  string
		updatedRaw  string
	)
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Title,
		&r.Platform,
		&publisher,
		&year,
		&cover,
		&backCover,
		&screenshots,
		&r.Version,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	r.Publisher = publisher.String
	r.ReleaseYear = int(year.Int64)
	r.Cover = cover.String
	r.BackCover = backCover.String

	var err error
	if r.Screenshots, err = decodeList(screenshots); err != nil {
		return nil, fmt.Errorf("record %s screenshots: %w", r.ID, err)
	}
	if r.CreatedAt, err = parseTimeString(createdRaw); err != nil {
		return nil, fmt.Errorf("record %s created_at: %w", r.ID, err)
	}
	if r.UpdatedAt, err = parseTimeString(updatedRaw); err != nil {
		return nil, fmt.Errorf("record %s updated_at: %w", r.ID, err)
	}
	return &r, nil
}

func scanOwner(row scanner) (*catalog.Owner, error) {
	var (
		o          catalog.Owner
		createdRaw string
	)
	if err := row.Scan(&o.ID, &o.DisplayName, &o.Plan, &createdRaw); err != nil {
		return nil, err
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("owner %s created_at: %w", o.ID, err)
	}
	o.CreatedAt = created
	return &o, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
