package history

import (
	"context"
	"fmt"
)

// EndpointStats aggregates recorded attempts for one endpoint.
type EndpointStats struct {
	Endpoint      string
	Attempts      int64
	Accepted      int64
	Rejected      int64
	Failed        int64
	Wins          int64
	MeanElapsedMS float64
}

// Summary aggregates recorded races.
type Summary struct {
	Races       int64
	Winners     int64
	Fallbacks   int64
	NoResponses int64
}

// EndpointStats returns per-endpoint aggregates over all recorded attempts,
// ordered by win count descending.
func (s *Store) EndpointStats(ctx context.Context) ([]EndpointStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			endpoint,
			COUNT(*),
			SUM(CASE WHEN outcome = 'accepted' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'rejected' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END),
			SUM(won),
			AVG(elapsed_ms)
		FROM attempts
		GROUP BY endpoint
		ORDER BY SUM(won) DESC, endpoint ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint stats: %w", err)
	}
	defer rows.Close()

	var stats []EndpointStats
	for rows.Next() {
		var es EndpointStats
		if err := rows.Scan(
			&es.Endpoint,
			&es.Attempts,
			&es.Accepted,
			&es.Rejected,
			&es.Failed,
			&es.Wins,
			&es.MeanElapsedMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint stats: %w", err)
		}
		stats = append(stats, es)
	}
	return stats, rows.Err()
}

// Summary returns race-level aggregates.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN result = 'winner' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'fallback' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'no_response' THEN 1 ELSE 0 END), 0)
		FROM races`).Scan(&sum.Races, &sum.Winners, &sum.Fallbacks, &sum.NoResponses)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query summary: %w", err)
	}
	return sum, nil
}
