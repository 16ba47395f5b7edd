package linkstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"murmur/internal/rotation"
)

// Play is one recorded dispatch.
type Play struct {
	ID        int64
	ClipID    string
	Link      string
	Title     string
	Slot      int
	Duration  time.Duration
	Effective time.Duration
	Speed     float64
	Amplitude float64
	PlayedAt  time.Time
}

// RecordDispatch appends d to the play history.
func (s *Store) RecordDispatch(ctx context.Context, d rotation.Dispatch) error {
	at := d.At
	if at.IsZero() {
		at = time.Now()
	}
	err := s.execWithRetry(ctx, `INSERT INTO plays (
            clip_id, link, title, slot, duration_ms, effective_ms, speed, amplitude, played_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ClipID,
		d.Link,
		nullableString(d.Title),
		d.Slot,
		d.Duration.Milliseconds(),
		d.Effective.Milliseconds(),
		d.Speed,
		d.Amplitude,
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// History returns up to limit plays, newest first. limit <= 0 returns all.
func (s *Store) History(ctx context.Context, limit int) ([]Play, error) {
	query := `SELECT id, clip_id, link, title, slot, duration_ms, effective_ms, speed, amplitude, played_at
        FROM plays ORDER BY played_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Play
	for rows.Next() {
		var (
			p                 Play
			title, playedAt   sql.NullString
			durationMS, effMS int64
		)
		if err := rows.Scan(&p.ID, &p.ClipID, &p.Link, &title, &p.Slot, &durationMS, &effMS, &p.Speed, &p.Amplitude, &playedAt); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		p.Title = title.String
		p.Duration = time.Duration(durationMS) * time.Millisecond
		p.Effective = time.Duration(effMS) * time.Millisecond
		p.PlayedAt = parseTime(playedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
