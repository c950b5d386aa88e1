package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/usemaya/maya/store"
)

func (d *DB) UpsertFact(ctx context.Context, upsert *store.UpsertFact) (*store.Fact, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO fact (creator_id, key, value, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (creator_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts
	`
	fact := &store.Fact{
		CreatorID: upsert.CreatorID,
		Key:       upsert.Key,
		Value:     upsert.Value,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.CreatorID,
		upsert.Key,
		upsert.Value,
		now,
		now,
	).Scan(&fact.ID, &fact.CreatedTs, &fact.UpdatedTs); err != nil {
		return nil, err
	}
	return fact, nil
}

func (d *DB) ListFacts(ctx context.Context, find *store.FindFact) ([]*store.Fact, error) {
	where, args := []string{"TRUE"}, []any{}
	if v := find.CreatorID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if v := find.Key; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("key = $%d", len(args)))
	}

	stmt := `
		SELECT id, creator_id, key, value, created_ts, updated_ts
		FROM fact
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts ASC, id ASC
	`
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*store.Fact{}
	for rows.Next() {
		fact := &store.Fact{}
		if err := rows.Scan(
			&fact.ID,
			&fact.CreatorID,
			&fact.Key,
			&fact.Value,
			&fact.CreatedTs,
			&fact.UpdatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, fact)
	}
	return list, rows.Err()
}

func (d *DB) DeleteFact(ctx context.Context, delete *store.DeleteFact) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM fact WHERE creator_id = $1 AND key = $2",
		delete.CreatorID, delete.Key)
	return err
}
