package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abichu1/gym-members/internal/adapters/storage"
	domain "github.com/Abichu1/gym-members/internal/domain/member"
)

const memberColumns = "id, membership_id, name, email, phone, expiry, photo_path, member_url, notes, created_at, reminded_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store over the given database.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert persists a new member.
// PRE: entity has been validated; entity.ID is non-empty
// POST: Row inserted, or a duplicate sentinel returned with the table unchanged
func (s *SQLiteStore) Insert(ctx context.Context, entity domain.Member) error {
	query := "INSERT INTO members (" + memberColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		nullable(entity.MembershipID),
		entity.Name,
		nullable(entity.Email),
		nullable(entity.Phone),
		entity.Expiry,
		nullable(entity.PhotoPath),
		entity.MemberURL,
		entity.Notes,
		entity.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(entity.RemindedAt),
	)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

// GetByID retrieves a member by its id.
// PRE: id is non-empty
// POST: Returns the entity, or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	entity, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, ErrNotFound
	}
	return entity, err
}

// List retrieves all members in the requested order. Insertion order is the
// default; newest-first is an explicit, documented sort on created_at.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	query := "SELECT " + memberColumns + " FROM members ORDER BY created_at ASC, id ASC"
	if filter.Order == OrderNewest {
		query = "SELECT " + memberColumns + " FROM members ORDER BY created_at DESC, id DESC"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the total number of members.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&count)
	return count, err
}

// Delete removes a member by id.
// POST: Row removed; ErrNotFound if no row matched (non-fatal to callers
// that treat delete as idempotent)
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDueReminders returns members expiring in [from, until] with an email
// address and no reminder sent yet.
func (s *SQLiteStore) ListDueReminders(ctx context.Context, from, until string) ([]domain.Member, error) {
	query := "SELECT " + memberColumns + ` FROM members
		WHERE email IS NOT NULL AND email != ''
		  AND reminded_at IS NULL
		  AND expiry >= ? AND expiry <= ?
		ORDER BY expiry ASC`

	rows, err := s.db.QueryContext(ctx, query, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// MarkReminded stamps the reminder time on a member.
func (s *SQLiteStore) MarkReminded(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET reminded_at = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanMember reads one row's columns into a domain Member, converting NULL
// text columns to the empty-string sentinel and parsing timestamps.
func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var entity domain.Member
	var membershipID, email, phone, photoPath, remindedAt sql.NullString
	var createdAt string

	err := scan(
		&entity.ID,
		&membershipID,
		&entity.Name,
		&email,
		&phone,
		&entity.Expiry,
		&photoPath,
		&entity.MemberURL,
		&entity.Notes,
		&createdAt,
		&remindedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}

	entity.MembershipID = membershipID.String
	entity.Email = email.String
	entity.Phone = phone.String
	entity.PhotoPath = photoPath.String

	entity.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Member{}, fmt.Errorf("parse created_at: %w", err)
	}
	if remindedAt.Valid {
		entity.RemindedAt, err = time.Parse(time.RFC3339Nano, remindedAt.String)
		if err != nil {
			return domain.Member{}, fmt.Errorf("parse reminded_at: %w", err)
		}
	}
	return entity, nil
}

// translateConstraint maps SQLite uniqueness violations to sentinel errors.
// modernc.org/sqlite reports the violated column in the error text
// (e.g. "UNIQUE constraint failed: members.membership_id").
func translateConstraint(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	if strings.Contains(msg, "members.membership_id") {
		return ErrDuplicateMembership
	}
	if strings.Contains(msg, "members.id") {
		return ErrDuplicateID
	}
	return err
}

// nullable converts the empty-string sentinel to NULL for storage.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime converts the zero time to NULL for storage.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
