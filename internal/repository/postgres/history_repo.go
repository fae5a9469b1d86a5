package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
)

var _ alert.HistoryRepo = (*AlertHistoryRepoImpl)(nil)

type AlertHistoryRepoImpl struct {
	db *DB
}

func NewAlertHistoryRepo(db *DB) *AlertHistoryRepoImpl { return &AlertHistoryRepoImpl{db: db} }

const (
	qHistoryInsert = `
INSERT INTO alert_history (alert_id, action, detail, actor_id)
VALUES ($1, $2, $3, $4)
RETURNING id, at;
`

	qHistoryByAlert = `
SELECT id, alert_id, action, detail, actor_id, at
FROM alert_history
WHERE alert_id = $1
ORDER BY at DESC
LIMIT $2;
`
)

func (r *AlertHistoryRepoImpl) Append(ctx context.Context, e *alert.HistoryEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qHistoryInsert,
		e.AlertID, e.Action, nullStr(e.Detail), e.ActorID,
	).Scan(&e.ID, &e.At); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *AlertHistoryRepoImpl) ListByAlert(ctx context.Context, alertID uuid.UUID, limit int) ([]*alert.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qHistoryByAlert, alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*alert.HistoryEntry
	for rows.Next() {
		var (
			e      alert.HistoryEntry
			detail *string
		)
		if err := rows.Scan(&e.ID, &e.AlertID, &e.Action, &detail, &e.ActorID, &e.At); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Detail = strOrEmpty(detail)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
