package local

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/zippycart/storefront/internal/domain/order"
)

const ordersFile = "orders.jsonl"

// OrderLog is an append-only JSONL order log on disk. Orders are immutable,
// so append is the only write the format needs.
type OrderLog struct {
	path string
}

var _ order.Repository = (*OrderLog)(nil)

// NewOrderLog returns an OrderLog stored under the given data directory.
func NewOrderLog(dir string) (*OrderLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &OrderLog{path: filepath.Join(dir, ordersFile)}, nil
}

// Append writes the order as one JSON line at the end of the log.
func (l *OrderLog) Append(_ context.Context, o *order.Order) error {
	var e jx.Encoder
	encodeOrder(&e, o)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", l.path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(e.Bytes(), '\n')); err != nil {
		return errors.Wrapf(err, "append order %s", o.ID)
	}
	return f.Sync()
}

// Recent returns up to limit orders, newest first. A missing log file means
// no orders yet.
func (l *OrderLog) Recent(_ context.Context, limit int) ([]order.Order, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open %s", l.path)
	}
	defer func() { _ = f.Close() }()

	var all []order.Order
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		o, err := decodeOrder(jx.DecodeBytes(line))
		if err != nil {
			return nil, errors.Wrap(err, "decode order line")
		}
		all = append(all, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", l.path)
	}

	// Newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
