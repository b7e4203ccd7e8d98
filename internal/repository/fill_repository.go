package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ajmal017/dailyScript/internal/models"
)

// Ошибки репозитория исполнений
var (
	ErrFillNotFound = errors.New("fill record not found")
)

// FillRepository - работа с таблицей fills.
// Движок пишет сюда каждое приращение заполнения ордера; записи
// append-only и обратно движком не читаются. Чтение используется
// только отчётными запросами HTTP API.
type FillRepository struct {
	db *sql.DB
}

// NewFillRepository создает новый экземпляр репозитория
func NewFillRepository(db *sql.DB) *FillRepository {
	return &FillRepository{db: db}
}

// RecordFill сохраняет приращение заполнения ордера
func (r *FillRepository) RecordFill(ctx context.Context, fill models.FillRecord) error {
	query := `
		INSERT INTO fills (pair_id, order_key, order_ref, symbol, side, role, quantity, price, traded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()

	_, err := r.db.ExecContext(
		ctx,
		query,
		fill.PairID,
		fill.OrderKey,
		fill.OrderRef,
		fill.Symbol,
		fill.Side,
		fill.Role,
		fill.Quantity,
		fill.Price,
		fill.TradedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert fill: %w", err)
	}

	return nil
}

// GetByPairID возвращает все исполнения парной сделки в порядке времени
func (r *FillRepository) GetByPairID(ctx context.Context, pairID string) ([]*models.FillRecord, error) {
	query := `
		SELECT id, pair_id, order_key, order_ref, symbol, side, role, quantity, price, traded_at, created_at
		FROM fills
		WHERE pair_id = $1
		ORDER BY traded_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, pairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetRecent возвращает последние исполнения по всем сделкам
func (r *FillRepository) GetRecent(ctx context.Context, limit int) ([]*models.FillRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, pair_id, order_key, order_ref, symbol, side, role, quantity, price, traded_at, created_at
		FROM fills
		ORDER BY traded_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFills(rows)
}

// scanFills читает строки выборки в записи об исполнениях
func scanFills(rows *sql.Rows) ([]*models.FillRecord, error) {
	var fills []*models.FillRecord
	for rows.Next() {
		fill := &models.FillRecord{}
		err := rows.Scan(
			&fill.ID,
			&fill.PairID,
			&fill.OrderKey,
			&fill.OrderRef,
			&fill.Symbol,
			&fill.Side,
			&fill.Role,
			&fill.Quantity,
			&fill.Price,
			&fill.TradedAt,
			&fill.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fills, nil
}
