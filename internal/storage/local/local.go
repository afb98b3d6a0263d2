// Package local implements durable on-disk persistence for the session:
// snapshot files for the cart and wishlist, and an append-only order log.
// It is the authoritative side of the persistence bridge and must survive
// process restarts.
package local

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/persist"
)

const (
	cartFile     = "cart.json"
	wishlistFile = "wishlist.json"
)

// Store persists snapshots as JSON files under a data directory. Writes go
// through a temp file and rename, so a crash mid-write never leaves a
// corrupt snapshot behind.
type Store struct {
	dir string
}

var _ persist.Snapshots = (*Store)(nil)

// NewStore creates the data directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// SaveCart atomically replaces the cart snapshot file.
func (s *Store) SaveCart(_ context.Context, items []cart.Item) error {
	var e jx.Encoder
	encodeCartItems(&e, items)
	return s.writeFile(cartFile, e.Bytes())
}

// LoadCart reads the cart snapshot. A missing file is an empty cart, not an
// error.
func (s *Store) LoadCart(_ context.Context) ([]cart.Item, error) {
	data, err := s.readFile(cartFile)
	if err != nil || data == nil {
		return nil, err
	}
	return decodeCartItems(jx.DecodeBytes(data))
}

// SaveWishlist atomically replaces the wishlist snapshot file.
func (s *Store) SaveWishlist(_ context.Context, productIDs []string) error {
	var e jx.Encoder
	encodeStrings(&e, productIDs)
	return s.writeFile(wishlistFile, e.Bytes())
}

// LoadWishlist reads the wishlist snapshot; missing file means empty.
func (s *Store) LoadWishlist(_ context.Context) ([]string, error) {
	data, err := s.readFile(wishlistFile)
	if err != nil || data == nil {
		return nil, err
	}
	ids, err := decodeStrings(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode wishlist")
	}
	return ids, nil
}

func (s *Store) writeFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s", path)
	}
	return nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}
