package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

const transitionColumns = "id, sequence, region_id, title, kind, latitude, longitude, distance, occurred_at, created_at, updated_at, deleted_at"

// TransitionRepository implements models.Repository[*models.TransitionRecord] for the geofence event log.
//
// It is also a monitor sink: every handled event is recorded.
type TransitionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTransitionRepository creates a new TransitionRepository with the given database connection
func NewTransitionRepository(db *sql.DB) *TransitionRepository {
	return &TransitionRepository{db: db, now: time.Now}
}

// Create inserts a new [models.TransitionRecord] with generated ID and sequence
func (r *TransitionRepository) Create(rec *models.TransitionRecord) error {
	sequence, err := NextSequence(r.db, "geofence_events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.SetID(shared.GenerateID())
	rec.SetSequence(sequence)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO geofence_events (id, sequence, region_id, title, kind, latitude, longitude, distance, occurred_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	pos := rec.Position()
	_, err = r.db.Exec(query,
		rec.ID(),
		sequence,
		rec.RegionID(),
		rec.Title(),
		rec.Kind().String(),
		nullFloat(pos.Latitude),
		nullFloat(pos.Longitude),
		nullFloat(rec.Distance()),
		rec.OccurredAt(),
		rec.CreatedAt(),
		rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transition: %w", err)
	}
	return nil
}

// Get retrieves a transition by ID
func (r *TransitionRepository) Get(id string) (*models.TransitionRecord, error) {
	query := "SELECT " + transitionColumns + " FROM geofence_events WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id))
}

// Update rewrites the display title of a logged transition. The event itself is immutable.
func (r *TransitionRepository) Update(rec *models.TransitionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := r.now()
	rec.SetUpdatedAt(now)

	result, err := r.db.Exec(
		"UPDATE geofence_events SET title = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		rec.Title(), now, rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transition: %w", err)
	}
	return requireAffected(result, "transition", rec.ID())
}

// Delete soft-deletes a transition by ID
func (r *TransitionRepository) Delete(id string) error {
	return softDelete(r.db, "geofence_events", "transition", id)
}

// List returns live transitions in occurrence order.
//
// Criteria: "region_id" (string), "kind" ([geofence.EventKind] or its string form), "limit" (int, most recent N).
func (r *TransitionRepository) List(criteria map[string]any) ([]*models.TransitionRecord, error) {
	query := "SELECT " + transitionColumns + " FROM geofence_events WHERE deleted_at IS NULL"
	args := []any{}

	if regionID, ok := criteria["region_id"].(string); ok && regionID != "" {
		query += " AND region_id = ?"
		args = append(args, regionID)
	}

	switch kind := criteria["kind"].(type) {
	case geofence.EventKind:
		query += " AND kind = ?"
		args = append(args, kind.String())
	case string:
		if kind != "" {
			if _, err := geofence.ParseEventKind(kind); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
			}
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query = "SELECT * FROM (" + query + " ORDER BY sequence DESC LIMIT ?) ORDER BY sequence ASC"
		args = append(args, limit)
	} else {
		query += " ORDER BY sequence ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var records []*models.TransitionRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Record logs ev as observed now.
func (r *TransitionRepository) Record(ev geofence.TransitionEvent) (*models.TransitionRecord, error) {
	rec := models.NewTransitionRecord(0, ev, r.now())
	if err := r.Create(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Handle records ev; it satisfies the monitor's sink interface.
func (r *TransitionRepository) Handle(ctx context.Context, ev geofence.TransitionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.Record(ev)
	return err
}

func (r *TransitionRepository) scan(row scanner) (*models.TransitionRecord, error) {
	var (
		id, regionID, title, kind string
		sequence                  int
		lat, lon, distance        sql.NullFloat64
		occurredAt                time.Time
		createdAt, updatedAt      time.Time
		deletedAt                 sql.NullTime
	)

	err := row.Scan(&id, &sequence, &regionID, &title, &kind, &lat, &lon, &distance, &occurredAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "transition")
	}

	k, err := geofence.ParseEventKind(kind)
	if err != nil {
		return nil, fmt.Errorf("corrupt transition %s: %w", id, err)
	}

	ev := geofence.TransitionEvent{
		RegionID: regionID,
		Title:    title,
		Kind:     k,
		Position: geofence.Position{Latitude: floatOrNaN(lat), Longitude: floatOrNaN(lon)},
		Distance: floatOrNaN(distance),
	}

	rec := models.NewTransitionRecord(sequence, ev, occurredAt)
	rec.SetID(id)
	rec.SetCreatedAt(createdAt)
	rec.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		rec.SetDeletedAt(&deletedAt.Time)
	}
	return rec, nil
}

// nullFloat stores NaN as NULL.
func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: !math.IsNaN(f)}
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
