package sqlite

import (
	"context"
	"time"

	"github.com/usemaya/maya/store"
)

func (d *DB) UpsertFact(ctx context.Context, upsert *store.UpsertFact) (*store.Fact, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO fact (creator_id, key, value, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (creator_id, key)
		DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts
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
	where, args := []string{"1 = 1"}, []any{}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}
	if v := find.Key; v != nil {
		where, args = append(where, "key = ?"), append(args, *v)
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
		"DELETE FROM fact WHERE creator_id = ? AND key = ?",
		delete.CreatorID, delete.Key)
	return err
}
