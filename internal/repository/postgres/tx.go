package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

type txKey struct{}

// querier - общее у pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn возвращает транзакцию из ctx или пул
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor выполняет callback в транзакции БД, сохранённой в его контексте
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor создаёт транзактор поверх пула
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithTransaction начинает транзакцию, выполняет fn и коммитит
// Любая ошибка fn откатывает транзакцию
// Если в контексте уже есть транзакция, вызов присоединяется к ней
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// после успешного commit ничего не делает
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Probe реализует StorageCapabilityProbe для PostgreSQL
// Транзакции есть всегда, но проба всё равно выполняется, чтобы не принять обрыв за поддержку
type Probe struct {
	pool       *pgxpool.Pool
	transactor *Transactor
}

// NewProbe создаёт пробу поверх пула
func NewProbe(pool *pgxpool.Pool) *Probe {
	return &Probe{pool: pool, transactor: NewTransactor(pool)}
}

// Topology сообщает о реляционном хранилище и версии сервера
func (p *Probe) Topology(ctx context.Context) (repository.TopologyHint, error) {
	var version string
	if err := p.pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return repository.TopologyHint{}, fmt.Errorf("server version: %w", err)
	}
	return repository.TopologyHint{Kind: repository.TopologyRelational, Version: version}, nil
}

// ProbeTransaction выполняет SELECT 1 в транзакции
func (p *Probe) ProbeTransaction(ctx context.Context) error {
	return p.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var one int
		return conn(ctx, p.pool).QueryRow(ctx, "SELECT 1").Scan(&one)
	})
}
