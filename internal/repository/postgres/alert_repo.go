package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
)

var _ alert.Repo = (*AlertRepoImpl)(nil)

type AlertRepoImpl struct {
	db *DB
}

func NewAlertRepo(db *DB) *AlertRepoImpl { return &AlertRepoImpl{db: db} }

const alertCols = `
id, owner_id, title, body, type, priority, status, trigger_at, due_at,
advance_minutes, recurring, frequency, notify_by_email, action_url,
advance_notified, due_notified, created_at, updated_at, completed_at`

const (
	qAlertInsert = `
INSERT INTO alerts (
  id, owner_id, title, body, type, priority, status, trigger_at, due_at,
  advance_minutes, recurring, frequency, notify_by_email, action_url,
  advance_notified, due_notified
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING created_at, updated_at;
`

	qAlertGet = `SELECT ` + alertCols + ` FROM alerts WHERE id = $1;`

	qAlertGetOwned = `SELECT ` + alertCols + ` FROM alerts WHERE id = $1 AND owner_id = $2;`

	qAlertListByOwner = `
SELECT ` + alertCols + `
FROM alerts
WHERE owner_id = $1
ORDER BY trigger_at;
`

	qAlertListByOwnerStatus = `
SELECT ` + alertCols + `
FROM alerts
WHERE owner_id = $1 AND status = $2
ORDER BY trigger_at;
`

	qAlertUpdate = `
UPDATE alerts
SET title = $2, body = $3, type = $4, priority = $5, status = $6,
    trigger_at = $7, due_at = $8, advance_minutes = $9, recurring = $10,
    frequency = $11, notify_by_email = $12, action_url = $13,
    completed_at = $14, updated_at = now()
WHERE id = $1;
`

	qAlertDelete = `DELETE FROM alerts WHERE id = $1;`

	qAlertCountByStatus = `
SELECT status, count(*) FROM alerts WHERE owner_id = $1 GROUP BY status;
`

	qAlertFetchDue = `
SELECT ` + alertCols + `
FROM alerts
WHERE status = 'active' AND due_at IS NOT NULL AND due_at < $1 AND due_notified = FALSE
ORDER BY due_at
LIMIT $2;
`

	qAlertFetchAdvance = `
SELECT ` + alertCols + `
FROM alerts
WHERE status = 'active' AND advance_notified = FALSE
  AND trigger_at - make_interval(mins => advance_minutes) <= $1
ORDER BY trigger_at
LIMIT $2;
`

	qAlertFetchRecurring = `
SELECT ` + alertCols + `
FROM alerts
WHERE status = 'active' AND recurring = TRUE AND trigger_at < $1
ORDER BY trigger_at
LIMIT $2;
`

	qAlertMarkDue = `
UPDATE alerts SET due_notified = TRUE, updated_at = now()
WHERE id = $1 AND due_notified = FALSE;
`

	qAlertMarkAdvance = `
UPDATE alerts SET advance_notified = TRUE, updated_at = now()
WHERE id = $1 AND advance_notified = FALSE;
`

	qAlertCompleteIfActive = `
UPDATE alerts SET status = 'completed', completed_at = $2, updated_at = now()
WHERE id = $1 AND status = 'active';
`
)

func scanAlert(row pgx.Row, a *alert.Alert) error {
	var (
		frequency *string
		actionURL *string
	)
	if err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Title,
		&a.Body,
		&a.Type,
		&a.Priority,
		&a.Status,
		&a.TriggerAt,
		&a.DueAt,
		&a.AdvanceMinutes,
		&a.Recurring,
		&frequency,
		&a.NotifyByEmail,
		&actionURL,
		&a.AdvanceNotified,
		&a.DueNotified,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan alert: %w", err)
	}
	a.Frequency = alert.Frequency(strOrEmpty(frequency))
	a.ActionURL = strOrEmpty(actionURL)
	return nil
}

func (r *AlertRepoImpl) Create(ctx context.Context, a *alert.Alert) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = alert.StatusActive
	}

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qAlertInsert,
		a.ID, a.OwnerID, a.Title, a.Body, a.Type, a.Priority, a.Status,
		a.TriggerAt, nullTime(a.DueAt), a.AdvanceMinutes, a.Recurring,
		nullStr(string(a.Frequency)), a.NotifyByEmail, nullStr(a.ActionURL),
		a.AdvanceNotified, a.DueNotified,
	).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *AlertRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a alert.Alert
	if err := scanAlert(r.db.execQueryer(ctx).QueryRow(ctx, qAlertGet, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepoImpl) GetOwned(ctx context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a alert.Alert
	if err := scanAlert(r.db.execQueryer(ctx).QueryRow(ctx, qAlertGetOwned, id, ownerID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepoImpl) ListByOwner(ctx context.Context, ownerID int64, status alert.Status) ([]*alert.Alert, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	eq := r.db.execQueryer(ctx)
	if status == "" {
		rows, err = eq.Query(ctx, qAlertListByOwner, ownerID)
	} else {
		rows, err = eq.Query(ctx, qAlertListByOwnerStatus, ownerID, status)
	}
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepoImpl) Update(ctx context.Context, a *alert.Alert) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qAlertUpdate,
		a.ID, a.Title, a.Body, a.Type, a.Priority, a.Status,
		a.TriggerAt, nullTime(a.DueAt), a.AdvanceMinutes, a.Recurring,
		nullStr(string(a.Frequency)), a.NotifyByEmail, nullStr(a.ActionURL),
		nullTime(a.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AlertRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qAlertDelete, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AlertRepoImpl) CountByStatus(ctx context.Context, ownerID int64) (map[alert.Status]int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qAlertCountByStatus, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	defer rows.Close()

	out := make(map[alert.Status]int)
	for rows.Next() {
		var (
			st alert.Status
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *AlertRepoImpl) FetchDueUnnotified(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qAlertFetchDue, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepoImpl) FetchAdvanceCandidates(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qAlertFetchAdvance, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch advance candidates: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepoImpl) FetchRecurringElapsed(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qAlertFetchRecurring, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recurring alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepoImpl) MarkDueNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.claim(ctx, qAlertMarkDue, id)
}

func (r *AlertRepoImpl) MarkAdvanceNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.claim(ctx, qAlertMarkAdvance, id)
}

func (r *AlertRepoImpl) CompleteIfActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qAlertCompleteIfActive, id, now)
	if err != nil {
		return false, fmt.Errorf("complete alert: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *AlertRepoImpl) claim(ctx context.Context, q string, id uuid.UUID) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("claim alert: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func collectAlerts(rows pgx.Rows) ([]*alert.Alert, error) {
	var out []*alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
