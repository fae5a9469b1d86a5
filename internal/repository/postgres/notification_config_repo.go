package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

var _ notification.ConfigRepo = (*NotificationConfigRepoImpl)(nil)

type NotificationConfigRepoImpl struct {
	db *DB
}

func NewNotificationConfigRepo(db *DB) *NotificationConfigRepoImpl {
	return &NotificationConfigRepoImpl{db: db}
}

const notifConfigCols = `
owner_id, deadline_critical, new_activity, document_upload, financial,
system, email_enabled, deadline_days, created_at, updated_at`

const (
	qNotifConfigGet = `SELECT ` + notifConfigCols + ` FROM notification_configs WHERE owner_id = $1;`

	qNotifConfigInsert = `
INSERT INTO notification_configs (
  owner_id, deadline_critical, new_activity, document_upload, financial,
  system, email_enabled, deadline_days
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (owner_id) DO NOTHING;
`

	qNotifConfigUpdate = `
UPDATE notification_configs
SET deadline_critical = $2, new_activity = $3, document_upload = $4,
    financial = $5, system = $6, email_enabled = $7, deadline_days = $8,
    updated_at = now()
WHERE owner_id = $1;
`
)

func scanNotifConfig(row pgx.Row, c *notification.Config) error {
	if err := row.Scan(
		&c.OwnerID,
		&c.DeadlineCritical,
		&c.NewActivity,
		&c.DocumentUpload,
		&c.Financial,
		&c.System,
		&c.EmailEnabled,
		&c.DeadlineDays,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan notification config: %w", err)
	}
	return nil
}

func (r *NotificationConfigRepoImpl) GetOrCreate(ctx context.Context, ownerID int64) (*notification.Config, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)

	var c notification.Config
	err := scanNotifConfig(eq.QueryRow(ctx, qNotifConfigGet, ownerID), &c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d := notification.DefaultConfig(ownerID)
	if _, err := eq.Exec(ctx, qNotifConfigInsert,
		d.OwnerID, d.DeadlineCritical, d.NewActivity, d.DocumentUpload,
		d.Financial, d.System, d.EmailEnabled, d.DeadlineDays,
	); err != nil {
		return nil, fmt.Errorf("insert notification config: %w", err)
	}

	if err := scanNotifConfig(eq.QueryRow(ctx, qNotifConfigGet, ownerID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *NotificationConfigRepoImpl) Update(ctx context.Context, c *notification.Config) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifConfigUpdate,
		c.OwnerID, c.DeadlineCritical, c.NewActivity, c.DocumentUpload,
		c.Financial, c.System, c.EmailEnabled, c.DeadlineDays,
	)
	if err != nil {
		return fmt.Errorf("update notification config: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
