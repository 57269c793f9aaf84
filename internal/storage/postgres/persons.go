package postgres

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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
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
		FROM persons WHERE id = $1`, id)

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
		where = `WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR nickname ILIKE $1`
		args = append(args, "%"+opts.Search+"%")
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
		FROM persons %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, opts.SortBy, opts.SortOrder, len(args)+1, len(args)+2)
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
			first_name = $1, last_name = $2, nickname = $3, summary = $4, starters = $5,
			phone = $6, email = $7, birthday = $8, last_contact = $9, updated_at = $10
		WHERE id = $11`,
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
		`UPDATE persons SET last_contact = $1, updated_at = $2 WHERE id = $3`,
		at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch last contact: %w", err)
	}
	return checkAffected(result)
}

// UpdateSummary replaces the person's AI-generated summary.
func (s *Store) UpdateSummary(ctx context.Context, id string, summary string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET summary = $1, updated_at = $2 WHERE id = $3`,
		nullString(summary), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return checkAffected(result)
}

// UpdateStarters replaces the person's derived conversation starters.
func (s *Store) UpdateStarters(ctx context.Context, id string, starters string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET starters = $1, updated_at = $2 WHERE id = $3`,
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

	query := "UPDATE persons SET updated_at = $1"
	args := []interface{}{time.Now()}
	if info.Phone != nil {
		args = append(args, nullString(*info.Phone))
		query += fmt.Sprintf(", phone = $%d", len(args))
	}
	if info.Email != nil {
		args = append(args, nullString(*info.Email))
		query += fmt.Sprintf(", email = $%d", len(args))
	}
	if info.Birthday != nil {
		args = append(args, nullString(*info.Birthday))
		query += fmt.Sprintf(", birthday = $%d", len(args))
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact info: %w", err)
	}
	return checkAffected(result)
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
