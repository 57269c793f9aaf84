package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// CreatePerson inserts a new person row.
func (s *Store) CreatePerson(ctx context.Context, person *types.Person) error {
	if person == nil {
		return storage.ErrInvalidInput
	}
	if person.ID == "" {
		return fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}
	if person.FirstName == "" {
		return fmt.Errorf("%w: first name is required", storage.ErrInvalidInput)
	}

	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now()
	}
	if person.UpdatedAt.IsZero() {
		person.UpdatedAt = person.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (
			id, first_name, last_name, nickname, summary, starters,
			phone, email, birthday, last_contact, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID,
		person.FirstName,
		nullString(person.LastName),
		nullString(person.Nickname),
		nullString(person.Summary),
		nullString(person.Starters),
		nullString(person.Phone),
		nullString(person.Email),
		nullString(person.Birthday),
		nullTime(person.LastContact),
		person.CreatedAt,
		person.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}

	return nil
}

// GetPerson retrieves a person by ID.
func (s *Store) GetPerson(ctx context.Context, id string) (*types.Person, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, nickname, summary, starters,
		       phone, email, birthday, last_contact, created_at, updated_at
		FROM persons WHERE id = ?`, id)

	person, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return person, nil
}

// ListPersons retrieves persons with pagination and optional name search.
func (s *Store) ListPersons(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Person], error) {
	opts.Normalize()

	where := ""
	args := []interface{}{}
	if opts.Search != "" {
		// SQLite LIKE is case-insensitive for ASCII by default
		where = `WHERE first_name LIKE ? OR last_name LIKE ? OR nickname LIKE ?`
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM persons " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count persons: %w", err)
	}

	// SortBy/SortOrder are whitelist-validated by Normalize
	query := fmt.Sprintf(`
		SELECT id, first_name, last_name, nickname, summary, starters,
		       phone, email, birthday, last_contact, created_at, updated_at
		FROM persons %s ORDER BY %s %s LIMIT ? OFFSET ?`,
		where, opts.SortBy, opts.SortOrder)
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var items []types.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		items = append(items, *person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return &storage.PaginatedResult[types.Person]{
		Items:    items,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(items) < total,
	}, nil
}

// UpdatePerson modifies an existing person.
func (s *Store) UpdatePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.ID == "" {
		return fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}

	person.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE persons SET
			first_name = ?, last_name = ?, nickname = ?, summary = ?, starters = ?,
			phone = ?, email = ?, birthday = ?, last_contact = ?, updated_at = ?
		WHERE id = ?`,
		person.FirstName,
		nullString(person.LastName),
		nullString(person.Nickname),
		nullString(person.Summary),
		nullString(person.Starters),
		nullString(person.Phone),
		nullString(person.Email),
		nullString(person.Birthday),
		nullTime(person.LastContact),
		person.UpdatedAt,
		person.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}

	return checkAffected(result)
}

// TouchLastContact sets the person's last-contact timestamp.
func (s *Store) TouchLastContact(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET last_contact = ?, updated_at = ? WHERE id = ?`,
		at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch last contact: %w", err)
	}
	return checkAffected(result)
}

// UpdateSummary replaces the person's AI-generated summary.
func (s *Store) UpdateSummary(ctx context.Context, id string, summary string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET summary = ?, updated_at = ? WHERE id = ?`,
		nullString(summary), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return checkAffected(result)
}

// UpdateStarters replaces the person's derived conversation starters.
func (s *Store) UpdateStarters(ctx context.Context, id string, starters string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET starters = ?, updated_at = ? WHERE id = ?`,
		nullString(starters), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update starters: %w", err)
	}
	return checkAffected(result)
}

// UpdateContactInfo applies accepted contact-info fields; nil fields are
// left untouched.
func (s *Store) UpdateContactInfo(ctx context.Context, id string, info storage.ContactInfoUpdate) error {
	if info.Phone == nil && info.Email == nil && info.Birthday == nil {
		return nil
	}

	query := "UPDATE persons SET updated_at = ?"
	args := []interface{}{time.Now()}
	if info.Phone != nil {
		query += ", phone = ?"
		args = append(args, nullString(*info.Phone))
	}
	if info.Email != nil {
		query += ", email = ?"
		args = append(args, nullString(*info.Email))
	}
	if info.Birthday != nil {
		query += ", birthday = ?"
		args = append(args, nullString(*info.Birthday))
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact info: %w", err)
	}
	return checkAffected(result)
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row scanner) (*types.Person, error) {
	var (
		person                      types.Person
		lastName, nickname, summary sql.NullString
		starters                    sql.NullString
		phone, email, birthday      sql.NullString
		lastContact                 sql.NullTime
	)

	err := row.Scan(
		&person.ID, &person.FirstName, &lastName, &nickname, &summary, &starters,
		&phone, &email, &birthday, &lastContact,
		&person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	person.LastName = lastName.String
	person.Nickname = nickname.String
	person.Summary = summary.String
	person.Starters = starters.String
	person.Phone = phone.String
	person.Email = email.String
	person.Birthday = birthday.String
	if lastContact.Valid {
		t := lastContact.Time
		person.LastContact = &t
	}

	return &person, nil
}

// nullString converts "" to NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime converts nil to NULL for optional timestamp columns.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// checkAffected maps zero affected rows to ErrNotFound.
func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
