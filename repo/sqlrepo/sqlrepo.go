// Package sqlrepo 提供基于 PostgreSQL 的仓储实现。
//
// 访问记录与用户档案由上游业务系统写入，这里只读；
// 相似度缓存与推荐记录由推荐引擎自己读写。
// 全部查询使用 database/sql + lib/pq，不引入 ORM。
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Postgres 驱动，仅注册
	_ "github.com/lib/pq"
)

// Options 配置数据库连接。
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open 建立连接池并探活。
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// scanFunc 把一行扫描成 T。
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan 执行查询并用 scan 逐行扫描。
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []any, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// queryInt 执行单值计数查询。
func queryInt(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
