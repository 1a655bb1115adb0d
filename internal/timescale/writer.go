package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"lusd-sp-engine/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// HarvestReport is one persisted harvest cycle. Amounts are decimal strings
// in want base units and stored as NUMERIC.
type HarvestReport struct {
	Time        time.Time
	Profit      string
	Loss        string
	DebtPayment string
	TotalAssets string
	TotalDebt   string
	Route       string
}

// Writer persists harvest reports asynchronously so a slow database never
// blocks a harvest cycle. Reports are dropped, and counted, when the queue
// is full.
type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	schema  string
	reports chan HarvestReport
	started atomic.Bool
	dropped atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:      db,
		log:     log,
		schema:  schema,
		reports: make(chan HarvestReport, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.harvest_reports (
		time TIMESTAMPTZ NOT NULL,
		profit NUMERIC NOT NULL,
		loss NUMERIC NOT NULL,
		debt_payment NUMERIC NOT NULL,
		total_assets NUMERIC NOT NULL,
		total_debt NUMERIC NOT NULL,
		route TEXT NOT NULL
	)`, w.schema)
	_, err := w.db.ExecContext(ctx, stmt)
	return err
}

// Start launches the drain loop. Safe to call on a nil writer (timescale
// disabled).
func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.loop(ctx)
}

// Enqueue offers a report to the drain loop without blocking.
func (w *Writer) Enqueue(report HarvestReport) {
	if w == nil {
		return
	}
	select {
	case w.reports <- report:
	default:
		dropped := w.dropped.Add(1)
		w.log.Warn("harvest report dropped", zap.Uint64("dropped_total", dropped))
	}
}

func (w *Writer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-w.reports:
			if err := w.write(report); err != nil {
				w.log.Warn("harvest report write failed", zap.Error(err))
			}
		}
	}
}

func (w *Writer) write(report HarvestReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	stmt := fmt.Sprintf(`INSERT INTO %s.harvest_reports
		(time, profit, loss, debt_payment, total_assets, total_debt, route)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, w.schema)
	_, err := w.db.ExecContext(ctx, stmt,
		report.Time, report.Profit, report.Loss, report.DebtPayment,
		report.TotalAssets, report.TotalDebt, report.Route,
	)
	return err
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	return w.db.Close()
}
