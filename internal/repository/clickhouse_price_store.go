package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

const barsChunkSize = 2000

// CHPriceStore implements PriceStore backed by ClickHouse. Each timeframe has its own
// ReplacingMergeTree table keyed by (ticker, ts), so re-inserting a bar replaces it.
type CHPriceStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewCHPriceStore creates a price store on the shared ClickHouse client.
func NewCHPriceStore(ch *pkgch.Client, l *applogger.Logger) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), database: ch.Database(), l: l.Component("price-store")}
}

// Init creates the bar tables.
func (s *CHPriceStore) Init(ctx context.Context) error {
	for _, tf := range []domrepo.Timeframe{domrepo.TF1m, domrepo.TF1h, domrepo.TF1d} {
		table, _ := s.tableForTF(tf)
		if _, err := s.db.ExecContext(ctx, barsDDL(table)); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	return nil
}

func barsDDL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ticker     LowCardinality(String),
            ts         DateTime64(3, 'UTC'),
            open       Float64,
            high       Float64,
            low        Float64,
            close      Float64,
            volume     Float64,
            updated_at DateTime64(3, 'UTC') DEFAULT now64(3)
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (ticker, ts)
    `, table)
}

// StoreBars inserts bars in chunks. Bars without a ticker or timestamp are skipped.
func (s *CHPriceStore) StoreBars(ctx context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	table, err := s.tableForTF(tf)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for start := 0; start < len(bars); start += barsChunkSize {
		end := start + barsChunkSize
		if end > len(bars) {
			end = len(bars)
		}

		q, args := buildBarsInsert(table, bars[start:end], now)
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store_bars error",
				applogger.String("table", table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func buildBarsInsert(table string, bars []models.Bar, now time.Time) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*8)
	for _, b := range bars {
		if b.Ticker == "" || b.Time.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.Ticker, b.Time.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume, now)
	}
	q := fmt.Sprintf("INSERT INTO %s (ticker, ts, open, high, low, close, volume, updated_at) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

// Bars returns bars of ticker within [from, to] in ascending time order.
func (s *CHPriceStore) Bars(ctx context.Context, ticker string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	start := time.Now()
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ticker, ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE ticker = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), ticker, from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse bars query error",
			applogger.String("table", table),
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out, err := scanBars(rows, 256)
	if err != nil {
		return nil, err
	}
	s.l.Debug("clickhouse bars ok",
		applogger.String("table", table),
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// LatestBars returns the n most recent bars in ascending time order.
func (s *CHPriceStore) LatestBars(ctx context.Context, ticker string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ticker, ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE ticker = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), ticker, n)
	if err != nil {
		s.l.Error("clickhouse latest_bars query error",
			applogger.String("table", table),
			applogger.String("ticker", ticker),
			applogger.Int("limit", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out, err := scanBars(rows, n)
	if err != nil {
		return nil, err
	}
	reverseBars(out)
	return out, nil
}

// Health pings ClickHouse.
func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanBars(rows *sql.Rows, capHint int) ([]models.Bar, error) {
	out := make([]models.Bar, 0, capHint)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Ticker, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = b.Time.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func reverseBars(b []models.Bar) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func (s *CHPriceStore) tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1m, domrepo.TF1h, domrepo.TF1d:
		return fmt.Sprintf("%s.bars_%s", s.database, tf), nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
