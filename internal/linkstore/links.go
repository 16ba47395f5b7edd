package linkstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"murmur/internal/candidate"
)

// Link is one stored candidate with its play count.
type Link struct {
	URL        string
	Seen       uint64
	Visited    uint64
	Plays      int
	LastPlayed time.Time
	UpdatedAt  time.Time
}

// Summary aggregates the pool and history tables.
type Summary struct {
	Links       int
	PlayedLinks int
	Plays       int
	MaxSeen     uint64
	MaxVisited  uint64
	LastPlayed  time.Time
}

// ImportResult counts what Import changed.
type ImportResult struct {
	Inserted int
	Updated  int
}

// Import upserts entries. Existing links take the new counts.
func (s *Store) Import(ctx context.Context, entries map[string]candidate.Stats) (ImportResult, error) {
	var result ImportResult
	err := retryOnBusy(ctx, func() error {
		result = ImportResult{}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO links (url, seen, visited, imported_at, updated_at)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(url) DO UPDATE SET seen = excluded.seen, visited = excluded.visited, updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := formatTime(time.Now())
		for link, stats := range entries {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM links WHERE url = ?", link).Scan(&exists); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, link, int64(stats.Seen), int64(stats.Visited), now, now); err != nil {
				return err
			}
			if exists > 0 {
				result.Updated++
			} else {
				result.Inserted++
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import links: %w", err)
	}
	return result, nil
}

// Candidates snapshots the links table for a candidate.Pool.
func (s *Store) Candidates(ctx context.Context) (map[string]candidate.Stats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT url, seen, visited FROM links")
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	out := make(map[string]candidate.Stats)
	for rows.Next() {
		var (
			url           string
			seen, visited int64
		)
		if err := rows.Scan(&url, &seen, &visited); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out[url] = candidate.Stats{Seen: uint64(max(seen, 0)), Visited: uint64(max(visited, 0))}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return out, nil
}

// List returns up to limit links, most seen first. limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Link, error) {
	query := `SELECT l.url, l.seen, l.visited, l.updated_at, COUNT(p.id), MAX(p.played_at)
        FROM links l LEFT JOIN plays p ON p.link = l.url
        GROUP BY l.url
        ORDER BY l.seen DESC, l.visited DESC, l.url ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var (
			link          Link
			seen, visited int64
			updated, last sql.NullString
		)
		if err := rows.Scan(&link.URL, &seen, &visited, &updated, &link.Plays, &last); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		link.Seen = uint64(max(seen, 0))
		link.Visited = uint64(max(visited, 0))
		link.UpdatedAt = parseTime(updated)
		link.LastPlayed = parseTime(last)
		out = append(out, link)
	}
	return out, rows.Err()
}

// Stats summarizes the pool and history.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	var (
		summary       Summary
		seen, visited sql.NullInt64
		last          sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT
            (SELECT COUNT(1) FROM links),
            (SELECT COUNT(DISTINCT link) FROM plays),
            (SELECT COUNT(1) FROM plays),
            (SELECT MAX(seen) FROM links),
            (SELECT MAX(visited) FROM links),
            (SELECT MAX(played_at) FROM plays)`)
	if err := row.Scan(&summary.Links, &summary.PlayedLinks, &summary.Plays, &seen, &visited, &last); err != nil {
		return Summary{}, fmt.Errorf("pool stats: %w", err)
	}
	summary.MaxSeen = uint64(max(seen.Int64, 0))
	summary.MaxVisited = uint64(max(visited.Int64, 0))
	summary.LastPlayed = parseTime(last)
	return summary, nil
}
