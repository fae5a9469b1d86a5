package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
)

var _ alert.ConfigRepo = (*AlertConfigRepoImpl)(nil)

type AlertConfigRepoImpl struct {
	db *DB
}

func NewAlertConfigRepo(db *DB) *AlertConfigRepoImpl { return &AlertConfigRepoImpl{db: db} }

const alertConfigCols = `
owner_id, enabled, deadlines, hearings, meetings, payments, tasks,
email_enabled, push_enabled, advance_minutes, quiet_start, quiet_end,
weekends, created_at, updated_at`

const (
	qAlertConfigGet = `SELECT ` + alertConfigCols + ` FROM alert_configs WHERE owner_id = $1;`

	qAlertConfigInsert = `
INSERT INTO alert_configs (
  owner_id, enabled, deadlines, hearings, meetings, payments, tasks,
  email_enabled, push_enabled, advance_minutes, quiet_start, quiet_end, weekends
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (owner_id) DO NOTHING;
`

	qAlertConfigUpdate = `
UPDATE alert_configs
SET enabled = $2, deadlines = $3, hearings = $4, meetings = $5, payments = $6,
    tasks = $7, email_enabled = $8, push_enabled = $9, advance_minutes = $10,
    quiet_start = $11, quiet_end = $12, weekends = $13, updated_at = now()
WHERE owner_id = $1;
`
)

func scanAlertConfig(row pgx.Row, c *alert.Config) error {
	if err := row.Scan(
		&c.OwnerID,
		&c.Enabled,
		&c.Deadlines,
		&c.Hearings,
		&c.Meetings,
		&c.Payments,
		&c.Tasks,
		&c.EmailEnabled,
		&c.PushEnabled,
		&c.AdvanceMinutes,
		&c.QuietStart,
		&c.QuietEnd,
		&c.Weekends,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan alert config: %w", err)
	}
	return nil
}

// GetOrCreate returns the user's alert preferences, inserting the defaults on
// first use. The insert is ON CONFLICT DO NOTHING so concurrent first calls
// converge on a single row.
func (r *AlertConfigRepoImpl) GetOrCreate(ctx context.Context, ownerID int64) (*alert.Config, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)

	var c alert.Config
	err := scanAlertConfig(eq.QueryRow(ctx, qAlertConfigGet, ownerID), &c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d := alert.DefaultConfig(ownerID)
	if _, err := eq.Exec(ctx, qAlertConfigInsert,
		d.OwnerID, d.Enabled, d.Deadlines, d.Hearings, d.Meetings, d.Payments,
		d.Tasks, d.EmailEnabled, d.PushEnabled, d.AdvanceMinutes,
		d.QuietStart, d.QuietEnd, d.Weekends,
	); err != nil {
		return nil, fmt.Errorf("insert alert config: %w", err)
	}

	if err := scanAlertConfig(eq.QueryRow(ctx, qAlertConfigGet, ownerID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AlertConfigRepoImpl) Update(ctx context.Context, c *alert.Config) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qAlertConfigUpdate,
		c.OwnerID, c.Enabled, c.Deadlines, c.Hearings, c.Meetings, c.Payments,
		c.Tasks, c.EmailEnabled, c.PushEnabled, c.AdvanceMinutes,
		c.QuietStart, c.QuietEnd, c.Weekends,
	)
	if err != nil {
		return fmt.Errorf("update alert config: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
