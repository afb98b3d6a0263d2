package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zippycart/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, value, target_kind, target_value,
		min_order, expires_at, usage_limit, used_count
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	listCouponsSQL = `SELECT code, discount_type, value, target_kind, target_value,
		min_order, expires_at, usage_limit, used_count
		FROM coupons WHERE active = TRUE ORDER BY code`

	// The WHERE clause is the authoritative usage-limit guard: the increment
	// and the check are one atomic statement.
	incrementUsesSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE UPPER(code) = UPPER($1) AND (usage_limit = 0 OR used_count < usage_limit)`

	upsertCouponSQL = `INSERT INTO coupons
		(code, discount_type, value, target_kind, target_value, min_order, expires_at, usage_limit, used_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			target_kind = EXCLUDED.target_kind,
			target_value = EXCLUDED.target_value,
			min_order = EXCLUDED.min_order,
			expires_at = EXCLUDED.expires_at,
			usage_limit = EXCLUDED.usage_limit,
			active = TRUE`
)

// CouponRepository implements the coupon registry and its separate usage
// write channel, backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

var (
	_ coupon.Registry      = (*CouponRepository)(nil)
	_ coupon.UsageRecorder = (*CouponRepository)(nil)
)

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon case-insensitively. Returns
// coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// List returns every active coupon.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// IncrementUses bumps the usage counter under the used_count < usage_limit
// guard. Zero affected rows means the coupon is exhausted (or unknown).
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, incrementUsesSQL, code)
	if err != nil {
		return fmt.Errorf("incrementing uses for coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrExhausted
	}
	return nil
}

// Upsert inserts or updates a coupon definition. Used count is reset only on
// insert; updating a live coupon keeps its accounting.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	kind, value, err := coupon.TargetColumns(c.Target)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	_, err = r.pool.Exec(ctx, upsertCouponSQL,
		c.Code, string(c.DiscountType), c.Value, kind, value,
		c.MinOrder, c.ExpiresAt, c.UsageLimit,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		value        decimal.Decimal
		targetKind   string
		targetValue  string
		minOrder     decimal.Decimal
		expiresAt    time.Time
		usageLimit   int32
		usedCount    int32
	)
	if err := row.Scan(
		&c.Code, &discountType, &value, &targetKind, &targetValue,
		&minOrder, &expiresAt, &usageLimit, &usedCount,
	); err != nil {
		return coupon.Coupon{}, err
	}

	target, err := coupon.ParseTarget(targetKind, targetValue)
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("coupon %q: %w", c.Code, err)
	}

	c.DiscountType = coupon.DiscountType(discountType)
	c.Value = value
	c.Target = target
	c.MinOrder = minOrder
	c.ExpiresAt = expiresAt
	c.UsageLimit = int(usageLimit)
	c.UsedCount = int(usedCount)
	return c, nil
}
