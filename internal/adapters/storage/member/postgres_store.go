package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Abichu1/gym-members/internal/domain/member"
)

// uniqueViolationCode is the Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// PostgresStore implements Store using a Postgres connection pool.
// Used when the configured database location is a postgres:// DSN; the
// contract is identical to SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a member store over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the members table if it does not exist.
// Idempotent; runs once at process start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			membership_id TEXT UNIQUE,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			expiry TEXT NOT NULL,
			photo_path TEXT,
			member_url TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			reminded_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_members_expiry ON members(expiry);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Insert persists a new member.
// POST: Row inserted, or a duplicate sentinel returned with the table unchanged
func (s *PostgresStore) Insert(ctx context.Context, entity domain.Member) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (id, membership_id, name, email, phone, expiry, photo_path, member_url, notes, created_at, reminded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entity.ID,
		textOrNil(entity.MembershipID),
		entity.Name,
		textOrNil(entity.Email),
		textOrNil(entity.Phone),
		entity.Expiry,
		textOrNil(entity.PhotoPath),
		entity.MemberURL,
		entity.Notes,
		entity.CreatedAt.UTC(),
		timeOrNil(entity.RemindedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			switch pgErr.ConstraintName {
			case "members_membership_id_key":
				return ErrDuplicateMembership
			default:
				return ErrDuplicateID
			}
		}
		return err
	}
	return nil
}

// GetByID retrieves a member by its id, or ErrNotFound.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, membership_id, name, email, phone, expiry, photo_path, member_url, notes, created_at, reminded_at FROM members WHERE id = $1", id)
	entity, err := scanPgMember(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, ErrNotFound
	}
	return entity, err
}

// List retrieves all members in the requested order.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	order := "ASC"
	if filter.Order == OrderNewest {
		order = "DESC"
	}
	rows, err := s.pool.Query(ctx,
		"SELECT id, membership_id, name, email, phone, expiry, photo_path, member_url, notes, created_at, reminded_at FROM members ORDER BY created_at "+order+", id "+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanPgMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the total number of members.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM members").Scan(&count)
	return count, err
}

// Delete removes a member by id; ErrNotFound if no row matched.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, "DELETE FROM members WHERE id = $1", id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDueReminders returns members expiring in [from, until] with an email
// address and no reminder sent yet.
func (s *PostgresStore) ListDueReminders(ctx context.Context, from, until string) ([]domain.Member, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, membership_id, name, email, phone, expiry, photo_path, member_url, notes, created_at, reminded_at
		FROM members
		WHERE email IS NOT NULL AND email != ''
		  AND reminded_at IS NULL
		  AND expiry >= $1 AND expiry <= $2
		ORDER BY expiry ASC
	`, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanPgMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// MarkReminded stamps the reminder time on a member.
func (s *PostgresStore) MarkReminded(ctx context.Context, id string, at time.Time) error {
	ct, err := s.pool.Exec(ctx, "UPDATE members SET reminded_at = $1 WHERE id = $2", at.UTC(), id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanPgMember reads one row into a domain Member, converting NULL columns
// to the empty-string / zero-time sentinels.
func scanPgMember(scan func(dest ...any) error) (domain.Member, error) {
	var entity domain.Member
	var membershipID, email, phone, photoPath *string
	var remindedAt *time.Time

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
		&entity.CreatedAt,
		&remindedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}

	if membershipID != nil {
		entity.MembershipID = *membershipID
	}
	if email != nil {
		entity.Email = *email
	}
	if phone != nil {
		entity.Phone = *phone
	}
	if photoPath != nil {
		entity.PhotoPath = *photoPath
	}
	if remindedAt != nil {
		entity.RemindedAt = *remindedAt
	}
	return entity, nil
}

// textOrNil converts the empty-string sentinel to NULL for storage.
func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// timeOrNil converts the zero time to NULL for storage.
func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
