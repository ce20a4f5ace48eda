package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"quizdeck/internal/domain"
)

// SeedCourses upserts courses, keeping their slice order as catalog order.
func SeedCourses(ctx context.Context, db *bun.DB, courses []domain.Course) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, course := range courses {
			data, err := json.Marshal(course)
			if err != nil {
				return fmt.Errorf("marshal course %s: %w", course.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO courses (id, position, data, updated_at) VALUES (?, ?, ?::jsonb, now())
				 ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, data=EXCLUDED.data, updated_at=now()`,
				course.ID, i, string(data)); err != nil {
				return fmt.Errorf("upsert course %s: %w", course.ID, err)
			}
		}
		return nil
	})
}
