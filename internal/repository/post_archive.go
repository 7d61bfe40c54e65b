package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SentiPulse/internal/domain/models"
	pkgch "SentiPulse/pkg/clickhouse"
	applogger "SentiPulse/pkg/logger"
)

// CHPostArchive implements PostArchive backed by ClickHouse. Each aggregate
// refresh appends its post batch; the correlation engine reads day-bucketed
// history back out.
type CHPostArchive struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

// NewCHPostArchive creates the archive over an established client.
func NewCHPostArchive(ch *pkgch.Client, l *applogger.Logger) *CHPostArchive {
	return &CHPostArchive{client: ch, db: ch.DB(), table: "posts", l: l}
}

// Schema returns the idempotent DDL for the archive table.
func Schema() []string {
	return []string{`
        CREATE TABLE IF NOT EXISTS posts (
            id String,
            symbol String,
            account_id String,
            account_username String,
            account_followers Int64,
            account_verified UInt8,
            content String,
            published_at DateTime,
            sentiment String,
            sentiment_score Float64,
            impact String,
            impact_score Float64,
            likes Int64,
            reposts Int64,
            replies Int64,
            quotes Int64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, published_at, id)
    `}
}

// StoreBatch appends posts for symbol. Duplicate IDs collapse on merge via
// ReplacingMergeTree, so replays are safe.
func (s *CHPostArchive) StoreBatch(ctx context.Context, symbol string, posts []models.NormalizedPost) error {
	if len(posts) == 0 {
		return nil
	}
	start := time.Now()

	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for lo := 0; lo < len(posts); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(posts) {
			hi = len(posts)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*16)
		for _, p := range posts[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			verified := uint8(0)
			if p.AccountVerified {
				verified = 1
			}
			args = append(args,
				p.ID, symbol, p.AccountID, p.AccountUsername, p.AccountFollowers, verified,
				p.Content, p.PublishedAt, string(p.Sentiment), p.SentimentScore,
				string(p.Impact), p.ImpactScore,
				p.Engagement.Likes, p.Engagement.Reposts, p.Engagement.Replies, p.Engagement.Quotes,
			)
		}

		q := fmt.Sprintf(
			"INSERT INTO %s (id, symbol, account_id, account_username, account_followers, account_verified, content, published_at, sentiment, sentiment_score, impact, impact_score, likes, reposts, replies, quotes) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse post insert error",
				applogger.String("symbol", symbol),
				applogger.Int("batch", hi-lo),
				applogger.Error(err))
			return fmt.Errorf("store posts: %w", err)
		}
	}

	s.l.Debug("clickhouse post insert ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(posts)),
		applogger.Duration("duration_ms", time.Since(start)))
	return nil
}

// QueryWindow returns posts for symbol published in [from, to], newest
// first, capped at limit.
func (s *CHPostArchive) QueryWindow(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NormalizedPost, error) {
	q := fmt.Sprintf(`
        SELECT id, account_id, account_username, account_followers, account_verified,
               content, published_at, sentiment, sentiment_score, impact, impact_score,
               likes, reposts, replies, quotes
        FROM %s
        WHERE symbol = ? AND published_at >= ? AND published_at <= ?
        ORDER BY published_at DESC
        LIMIT ?
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		s.l.Error("clickhouse post query error",
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := make([]models.NormalizedPost, 0, 256)
	for rows.Next() {
		var p models.NormalizedPost
		var sentiment, impact string
		var verified uint8
		if err := rows.Scan(&p.ID, &p.AccountID, &p.AccountUsername, &p.AccountFollowers, &verified,
			&p.Content, &p.PublishedAt, &sentiment, &p.SentimentScore, &impact, &p.ImpactScore,
			&p.Engagement.Likes, &p.Engagement.Reposts, &p.Engagement.Replies, &p.Engagement.Quotes); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.AccountVerified = verified == 1
		p.Sentiment = models.Sentiment(sentiment)
		p.Impact = models.Impact(impact)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Health checks the underlying connection.
func (s *CHPostArchive) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close closes the connection pool.
func (s *CHPostArchive) Close() error {
	return s.client.Close()
}
