package connector

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logged wraps a connector and logs every batch and query at debug level.
type Logged struct {
	conn   Connector
	logger *zap.Logger
}

// NewLogged wraps conn. A nil logger disables logging.
func NewLogged(conn Connector, logger *zap.Logger) *Logged {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logged{conn: conn, logger: logger}
}

// Unwrap returns the wrapped connector.
func (l *Logged) Unwrap() Connector {
	return l.conn
}

func (l *Logged) Execute(ctx context.Context, batch string) error {
	start := time.Now()
	err := l.conn.Execute(ctx, batch)
	l.logger.Debug("execute",
		zap.Strings("sql", SplitBatch(batch)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	return err
}

func (l *Logged) Query(ctx context.Context, query string) ([]Row, error) {
	start := time.Now()
	rows, err := l.conn.Query(ctx, query)
	l.logger.Debug("query",
		zap.String("sql", query),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	return rows, err
}

func (l *Logged) Dialect() string {
	if n, ok := l.conn.(DialectNamer); ok {
		return n.Dialect()
	}
	return ""
}

// IsRedshift delegates to the wrapped connector, reporting false when it
// cannot tell.
func (l *Logged) IsRedshift(ctx context.Context) (bool, error) {
	if p, ok := l.conn.(RedshiftProber); ok {
		return p.IsRedshift(ctx)
	}
	return false, nil
}
