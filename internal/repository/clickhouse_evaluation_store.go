package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"StockPulse/internal/domain/models"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

// CHEvaluationStore persists evaluations as JSON documents with their headline metrics
// in columns for ad-hoc queries.
type CHEvaluationStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHEvaluationStore creates an evaluation store on the shared ClickHouse client.
func NewCHEvaluationStore(ch *pkgch.Client, l *applogger.Logger) *CHEvaluationStore {
	return &CHEvaluationStore{db: ch.DB(), table: ch.Table("evaluations"), l: l.Component("evaluation-store")}
}

// Init creates the evaluations table.
func (s *CHEvaluationStore) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ticker               LowCardinality(String),
            evaluated_at         DateTime64(3, 'UTC'),
            train_size           UInt32,
            test_size            UInt32,
            rmse                 Float64,
            mape                 Float64,
            directional_accuracy Float64,
            best_rmse            String,
            payload              String
        ) ENGINE = MergeTree
        ORDER BY (ticker, evaluated_at)
        TTL toDateTime(evaluated_at) + INTERVAL 90 DAY
    `, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Save appends an evaluation.
func (s *CHEvaluationStore) Save(ctx context.Context, ev *models.Evaluation) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (ticker, evaluated_at, train_size, test_size, rmse, mape, directional_accuracy, best_rmse, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		ev.Ticker,
		ev.EvaluatedAt.UTC(),
		uint32(ev.TrainSize),
		uint32(ev.TestSize),
		ev.Model.RMSE,
		ev.Model.MAPE,
		ev.Model.DirectionalAccuracy,
		ev.BestRMSE,
		string(payload),
	)
	if err != nil {
		s.l.Error("clickhouse save_evaluation error", applogger.String("ticker", ev.Ticker), applogger.Error(err))
		return fmt.Errorf("save evaluation: %w", err)
	}
	return nil
}

// Latest returns the most recent evaluation of ticker, or nil when there is none.
func (s *CHEvaluationStore) Latest(ctx context.Context, ticker string) (*models.Evaluation, error) {
	q := fmt.Sprintf(`SELECT payload FROM %s WHERE ticker = ? ORDER BY evaluated_at DESC LIMIT 1`, s.table)

	var payload string
	if err := s.db.QueryRowContext(ctx, q, ticker).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest evaluation: %w", err)
	}
	return decodeEvaluation(payload)
}

func decodeEvaluation(payload string) (*models.Evaluation, error) {
	var ev models.Evaluation
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	return &ev, nil
}
