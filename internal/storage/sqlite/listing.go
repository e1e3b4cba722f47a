package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// querier общий интерфейс *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const listingColumns = `id, remote_id, created_at, modified_at`

// CreateListing inserts a new listing with its fields
func (s *Storage) CreateListing(ctx context.Context, rec *models.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.ModifiedAt.IsZero() {
		rec.ModifiedAt = rec.CreatedAt
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO listings (id, remote_id, created_at, modified_at) VALUES (?, ?, ?, ?)`,
			rec.ID,
			nullString(rec.RemoteID),
			timeToMillis(rec.CreatedAt),
			timeToMillis(rec.ModifiedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert listing: %w", err)
		}

		for name, value := range rec.Fields {
			if value == nil {
				continue
			}
			var synced any
			var hasSynced bool
			if rec.Synced != nil {
				synced, hasSynced = rec.Synced[name]
			}
			if err := upsertField(ctx, tx, rec.ID, name, value, rec.FieldTime(name), synced, hasSynced); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetListing retrieves listing by local ID
// Returns ErrListingNotFound if listing doesn't exist
func (s *Storage) GetListing(ctx context.Context, id string) (*models.Record, error) {
	return s.getListingWhere(ctx, "id = ?", id)
}

// GetListingByRemoteID retrieves listing linked to the remote record
// Returns ErrListingNotFound if no listing is linked
func (s *Storage) GetListingByRemoteID(ctx context.Context, remoteID string) (*models.Record, error) {
	if remoteID == "" {
		return nil, storage.ErrListingNotFound
	}
	return s.getListingWhere(ctx, "remote_id = ?", remoteID)
}

func (s *Storage) getListingWhere(ctx context.Context, where string, arg any) (*models.Record, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + where

	rec, err := scanListing(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if err := s.loadFields(ctx, []*models.Record{rec}); err != nil {
		return nil, err
	}

	return rec, nil
}

// ListListings returns all listings ordered by creation time
func (s *Storage) ListListings(ctx context.Context) ([]*models.Record, error) {
	return s.queryListings(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at ASC, id ASC`)
}

// ListListingsModifiedSince returns listings whose modified time is after since
func (s *Storage) ListListingsModifiedSince(ctx context.Context, since time.Time) ([]*models.Record, error) {
	return s.queryListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE modified_at > ? ORDER BY modified_at ASC, id ASC`,
		timeToMillis(since),
	)
}

// CountListingsModifiedSince returns the number of listings modified after since
func (s *Storage) CountListingsModifiedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings WHERE modified_at > ?`, timeToMillis(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count modified listings: %w", err)
	}
	return n, nil
}

func (s *Storage) queryListings(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	var recs []*models.Record
	for rows.Next() {
		rec, err := scanListing(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	// Закрываем до загрузки полей: соединение одно
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close rows: %w", err)
	}

	if err := s.loadFields(ctx, recs); err != nil {
		return nil, err
	}

	return recs, nil
}

// fieldsChunk ограничивает число параметров в одном IN (...)
const fieldsChunk = 500

// loadFields заполняет Fields, FieldModified и Synced для набора записей
func (s *Storage) loadFields(ctx context.Context, recs []*models.Record) error {
	byID := make(map[string]*models.Record, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}

	for start := 0; start < len(recs); start += fieldsChunk {
		end := min(start+fieldsChunk, len(recs))
		args := make([]any, 0, end-start)
		for _, rec := range recs[start:end] {
			args = append(args, rec.ID)
		}
		if err := s.loadFieldsChunk(ctx, byID, args); err != nil {
			return err
		}
	}

	return nil
}

func (s *Storage) loadFieldsChunk(ctx context.Context, byID map[string]*models.Record, args []any) error {
	query := `SELECT listing_id, name, value, modified_at, synced_value
		FROM listing_fields
		WHERE listing_id IN (` + placeholders(len(args)) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query listing fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			listingID, name, raw string
			modifiedAt           int64
			syncedRaw            sql.NullString
		)
		if err := rows.Scan(&listingID, &name, &raw, &modifiedAt, &syncedRaw); err != nil {
			return fmt.Errorf("failed to scan listing field: %w", err)
		}

		rec := byID[listingID]
		value, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("failed to decode field %s of %s: %w", name, listingID, err)
		}
		// null: поле очищено локально, строка хранит время очистки и базу
		if value != nil {
			rec.Fields[name] = value
		}
		rec.FieldModified[name] = millisToTime(modifiedAt)

		if syncedRaw.Valid {
			synced, err := decodeValue(syncedRaw.String)
			if err != nil {
				return fmt.Errorf("failed to decode synced value %s of %s: %w", name, listingID, err)
			}
			rec.Synced[name] = synced
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}

	return nil
}

// EditFields records a local edit
func (s *Storage) EditFields(ctx context.Context, id string, fields map[string]any, modifiedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := touchListing(ctx, tx, id, modifiedAt); err != nil {
			return err
		}

		for name, value := range fields {
			if err := upsertValue(ctx, tx, id, name, value, modifiedAt); err != nil {
				return err
			}
		}

		return nil
	})
}

// ApplySyncedFields writes values agreed by both sides
func (s *Storage) ApplySyncedFields(ctx context.Context, id string, fields map[string]any, fieldTimes map[string]time.Time) error {
	now := s.now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var latest time.Time
		for name := range fields {
			if ts := fieldTimes[name]; ts.After(latest) {
				latest = ts
			}
		}
		if latest.IsZero() {
			latest = now
		}

		if err := touchListing(ctx, tx, id, latest); err != nil {
			return err
		}

		for name, value := range fields {
			// Поле очищено на обеих сторонах: вместе со значением уходит и база
			if value == nil {
				if err := deleteField(ctx, tx, id, name); err != nil {
					return err
				}
				continue
			}
			ts := fieldTimes[name]
			if ts.IsZero() {
				ts = now
			}
			if err := upsertField(ctx, tx, id, name, value, ts, value, true); err != nil {
				return err
			}
		}

		return nil
	})
}

// MarkSynced stores values as the merge base without changing current values
func (s *Storage) MarkSynced(ctx context.Context, id string, fields map[string]any) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for name, value := range fields {
			// nil: поле очищено на remote стороне, базы больше нет
			var encoded sql.NullString
			if value != nil {
				raw, err := encodeValue(value)
				if err != nil {
					return fmt.Errorf("failed to encode field %s: %w", name, err)
				}
				encoded = sql.NullString{String: raw, Valid: true}
			}

			_, err := tx.ExecContext(ctx,
				`UPDATE listing_fields SET synced_value = ? WHERE listing_id = ? AND name = ?`,
				encoded, id, name,
			)
			if err != nil {
				return fmt.Errorf("failed to mark field %s synced: %w", name, err)
			}

			if value == nil {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM listing_fields WHERE listing_id = ? AND name = ? AND value = 'null'`, id, name,
				); err != nil {
					return fmt.Errorf("failed to drop cleared field %s: %w", name, err)
				}
			}
		}
		return nil
	})
}

// LinkRemote sets the remote ID of the listing
func (s *Storage) LinkRemote(ctx context.Context, id, remoteID string) error {
	return s.setRemoteID(ctx, id, nullString(remoteID))
}

// UnlinkRemote clears the remote ID of the listing, content stays
func (s *Storage) UnlinkRemote(ctx context.Context, id string) error {
	return s.setRemoteID(ctx, id, sql.NullString{})
}

func (s *Storage) setRemoteID(ctx context.Context, id string, remoteID sql.NullString) error {
	result, err := s.db.ExecContext(ctx, `UPDATE listings SET remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to update remote id: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrListingNotFound
	}

	return nil
}

// touchListing сдвигает modified_at вперед (никогда назад)
func touchListing(ctx context.Context, q querier, id string, modifiedAt time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE listings SET modified_at = MAX(modified_at, ?) WHERE id = ?`,
		timeToMillis(modifiedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrListingNotFound
	}
	return nil
}

func deleteField(ctx context.Context, q querier, listingID, name string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM listing_fields WHERE listing_id = ? AND name = ?`, listingID, name,
	); err != nil {
		return fmt.Errorf("failed to delete field %s: %w", name, err)
	}
	return nil
}

func upsertValue(ctx context.Context, q querier, listingID, name string, value any, modifiedAt time.Time) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", name, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO listing_fields (listing_id, name, value, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(listing_id, name) DO UPDATE SET
			value = excluded.value,
			modified_at = excluded.modified_at
	`, listingID, name, encoded, timeToMillis(modifiedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert field %s: %w", name, err)
	}
	return nil
}

func upsertField(ctx context.Context, q querier, listingID, name string, value any, modifiedAt time.Time, synced any, hasSynced bool) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", name, err)
	}

	var syncedEncoded sql.NullString
	if hasSynced {
		raw, err := encodeValue(synced)
		if err != nil {
			return fmt.Errorf("failed to encode synced value %s: %w", name, err)
		}
		syncedEncoded = sql.NullString{String: raw, Valid: true}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO listing_fields (listing_id, name, value, modified_at, synced_value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(listing_id, name) DO UPDATE SET
			value = excluded.value,
			modified_at = excluded.modified_at,
			synced_value = COALESCE(excluded.synced_value, listing_fields.synced_value)
	`, listingID, name, encoded, timeToMillis(modifiedAt), syncedEncoded)
	if err != nil {
		return fmt.Errorf("failed to upsert field %s: %w", name, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Record, error) {
	var (
		rec                   models.Record
		remoteID              sql.NullString
		createdAt, modifiedAt int64
	)
	if err := row.Scan(&rec.ID, &remoteID, &createdAt, &modifiedAt); err != nil {
		return nil, err
	}

	rec.RemoteID = remoteID.String
	rec.CreatedAt = millisToTime(createdAt)
	rec.ModifiedAt = millisToTime(modifiedAt)
	rec.Fields = make(map[string]any)
	rec.FieldModified = make(map[string]time.Time)
	rec.Synced = make(map[string]any)

	return &rec, nil
}

func encodeValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
