package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

const profileColumns = "id, sequence, name, value, created_at, updated_at, deleted_at"

// ProfileRepository implements models.Repository[*models.ProfileField] for the listener profile.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new [models.ProfileField] with generated ID and sequence
func (r *ProfileRepository) Create(field *models.ProfileField) error {
	sequence, err := NextSequence(r.db, "profile_fields")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	field.SetID(shared.GenerateID())
	field.SetSequence(sequence)

	if err := field.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO profile_fields (id, sequence, name, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, field.ID(), sequence, field.Name(), field.Value(), field.CreatedAt(), field.UpdatedAt())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: profile field %q", shared.ErrDuplicate, field.Name())
		}
		return fmt.Errorf("failed to insert profile field: %w", err)
	}

	return nil
}

// Get retrieves a field by ID, excluding soft-deleted rows
func (r *ProfileRepository) Get(id string) (*models.ProfileField, error) {
	query := "SELECT " + profileColumns + " FROM profile_fields WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id))
}

// GetByName retrieves a field by its key
func (r *ProfileRepository) GetByName(name string) (*models.ProfileField, error) {
	query := "SELECT " + profileColumns + " FROM profile_fields WHERE name = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, name))
}

// Update writes the field's value
func (r *ProfileRepository) Update(field *models.ProfileField) error {
	if err := field.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	field.SetUpdatedAt(now)

	result, err := r.db.Exec(
		"UPDATE profile_fields SET value = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		field.Value(), now, field.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update profile field: %w", err)
	}
	return requireAffected(result, "profile field", field.ID())
}

// Delete soft-deletes a field by ID
func (r *ProfileRepository) Delete(id string) error {
	return softDelete(r.db, "profile_fields", "profile field", id)
}

// List retrieves live fields, optionally filtered by "name"
func (r *ProfileRepository) List(criteria map[string]any) ([]*models.ProfileField, error) {
	query := "SELECT " + profileColumns + " FROM profile_fields WHERE deleted_at IS NULL"
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.ProfileField
	for rows.Next() {
		field, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return fields, nil
}

// Set upserts key to value. Soft-deleted rows for the key are purged first so the unique name constraint holds.
func (r *ProfileRepository) Set(name, value string) (*models.ProfileField, error) {
	if !slices.Contains(models.ProfileKeys, name) {
		return nil, fmt.Errorf("%w: unknown profile key %q", shared.ErrInvalidArgument, name)
	}

	field, err := r.GetByName(name)
	switch {
	case err == nil:
		field.SetValue(value)
		if err := r.Update(field); err != nil {
			return nil, err
		}
		return field, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if _, err := r.db.Exec("DELETE FROM profile_fields WHERE name = ? AND deleted_at IS NOT NULL", name); err != nil {
		return nil, fmt.Errorf("failed to purge deleted profile field: %w", err)
	}

	field = models.NewProfileField(0, name, value)
	if err := r.Create(field); err != nil {
		return nil, err
	}
	return field, nil
}

// Value returns the stored value for key, wrapping [shared.ErrNotFound] when unset.
func (r *ProfileRepository) Value(name string) (string, error) {
	field, err := r.GetByName(name)
	if err != nil {
		return "", err
	}
	return field.Value(), nil
}

func (r *ProfileRepository) scan(row scanner) (*models.ProfileField, error) {
	var (
		id, name, value      string
		sequence             int
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &name, &value, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, notFound(err, "profile field")
	}

	field := models.NewProfileField(sequence, name, value)
	field.SetID(id)
	field.SetCreatedAt(createdAt)
	field.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		field.SetDeletedAt(&deletedAt.Time)
	}
	return field, nil
}
