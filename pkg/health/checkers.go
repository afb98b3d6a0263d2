package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabasePing returns a CheckFunc probing remote sync connectivity.
func DatabasePing(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping database")
		}
		return nil
	}
}

// DataDirWritable returns a CheckFunc that verifies the local snapshot
// directory still accepts writes. A full or read-only disk is the one
// failure mode that silently breaks the durable side of persistence.
func DataDirWritable(dir string) CheckFunc {
	return func(_ context.Context) error {
		probe := filepath.Join(dir, ".healthprobe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			return errors.Wrapf(err, "write probe in %s", dir)
		}
		if err := os.Remove(probe); err != nil {
			return errors.Wrapf(err, "remove probe in %s", dir)
		}
		return nil
	}
}

// GoroutineCountCheck returns a CheckFunc that reports unhealthy when the
// number of goroutines exceeds the given threshold, to catch leaks in the
// background persistence machinery.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}
