package postgres

import (
	"context"
	"fmt"

	"github.com/quillboard/quillboard/internal/revocation"
)

var _ revocation.Store = (*RevocationRepo)(nil)

// RevocationRepo persists the banned flag per user id. The in-memory
// registry is the read path; this table only has to survive restarts.
type RevocationRepo struct{ db *DB }

func NewRevocationRepo(db *DB) *RevocationRepo { return &RevocationRepo{db: db} }

const (
	qRevocationBan = `
INSERT INTO revocations (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING;`

	qRevocationUnban = `
DELETE FROM revocations WHERE user_id = $1;`

	qRevocationList = `
SELECT user_id FROM revocations;`
)

func (r *RevocationRepo) Ban(ctx context.Context, userID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qRevocationBan, userID); err != nil {
		return fmt.Errorf("insert revocation: %w", err)
	}
	return nil
}

func (r *RevocationRepo) Unban(ctx context.Context, userID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qRevocationUnban, userID); err != nil {
		return fmt.Errorf("delete revocation: %w", err)
	}
	return nil
}

func (r *RevocationRepo) ListBanned(ctx context.Context) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qRevocationList)
	if err != nil {
		return nil, fmt.Errorf("list revocations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan revocation: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revocations: %w", err)
	}
	return ids, nil
}
