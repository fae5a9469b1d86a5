package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const notifCols = `
id, owner_id, title, body, type, priority, read, read_at, action_url, icon,
related_type, related_id, created_at, expires_at`

const (
	qNotifInsert = `
INSERT INTO notifications (
  id, owner_id, title, body, type, priority, action_url, icon,
  related_type, related_id, expires_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING created_at;
`

	qNotifGet = `SELECT ` + notifCols + ` FROM notifications WHERE id = $1;`

	qNotifListByOwner = `
SELECT ` + notifCols + `
FROM notifications
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2;
`

	qNotifListUnread = `
SELECT ` + notifCols + `
FROM notifications
WHERE owner_id = $1 AND read = FALSE
ORDER BY created_at DESC
LIMIT $2;
`

	qNotifCountUnread = `SELECT count(*) FROM notifications WHERE owner_id = $1 AND read = FALSE;`

	// idempotent: re-acking keeps the original read_at
	qNotifMarkRead = `
UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $3)
WHERE id = $1 AND owner_id = $2;
`

	qNotifMarkAllRead = `
UPDATE notifications SET read = TRUE, read_at = $2
WHERE owner_id = $1 AND read = FALSE;
`

	qNotifDelete = `DELETE FROM notifications WHERE id = $1 AND owner_id = $2;`

	qNotifDeleteExpired = `DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at < $1;`

	qNotifExistsRelated = `
SELECT EXISTS (
  SELECT 1 FROM notifications
  WHERE owner_id = $1 AND type = $2 AND related_type = $3 AND related_id = $4
);
`
)

func scanNotification(row pgx.Row, n *notification.Notification) error {
	var (
		actionURL   *string
		icon        *string
		relatedType *string
		relatedID   *string
	)
	if err := row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Body,
		&n.Type,
		&n.Priority,
		&n.Read,
		&n.ReadAt,
		&actionURL,
		&icon,
		&relatedType,
		&relatedID,
		&n.CreatedAt,
		&n.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan notification: %w", err)
	}
	n.ActionURL = strOrEmpty(actionURL)
	n.Icon = strOrEmpty(icon)
	n.RelatedType = strOrEmpty(relatedType)
	n.RelatedID = strOrEmpty(relatedID)
	return nil
}

func (r *NotificationRepoImpl) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifInsert,
		n.ID, n.OwnerID, n.Title, n.Body, n.Type, n.Priority,
		nullStr(n.ActionURL), nullStr(n.Icon),
		nullStr(n.RelatedType), nullStr(n.RelatedID), nullTime(n.ExpiresAt),
	).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n notification.Notification
	if err := scanNotification(r.db.execQueryer(ctx).QueryRow(ctx, qNotifGet, id), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepoImpl) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	return r.list(ctx, qNotifListByOwner, ownerID, limit)
}

func (r *NotificationRepoImpl) ListUnread(ctx context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	return r.list(ctx, qNotifListUnread, ownerID, limit)
}

func (r *NotificationRepoImpl) list(ctx context.Context, q string, ownerID int64, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0, limit)
	for rows.Next() {
		var n notification.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *NotificationRepoImpl) CountUnread(ctx context.Context, ownerID int64) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n int
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifCountUnread, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *NotificationRepoImpl) MarkRead(ctx context.Context, id uuid.UUID, ownerID int64, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifMarkRead, id, ownerID, at)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepoImpl) MarkAllRead(ctx context.Context, ownerID int64, at time.Time) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifMarkAllRead, ownerID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *NotificationRepoImpl) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifDelete, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepoImpl) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifDeleteExpired, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *NotificationRepoImpl) ExistsForRelated(ctx context.Context, ownerID int64, t notification.Type, relatedType, relatedID string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifExistsRelated, ownerID, t, relatedType, relatedID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists for related: %w", err)
	}
	return exists, nil
}
