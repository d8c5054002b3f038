package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/veloshop/checkout/internal/coupon"
)

// fakeCouponRows feeds collect one scan outcome per row.
type fakeCouponRows struct {
	scans []func(dest ...interface{}) error
	pos   int
}

func (f *fakeCouponRows) Next() bool {
	return f.pos < len(f.scans)
}

func (f *fakeCouponRows) Scan(dest ...interface{}) error {
	fn := f.scans[f.pos]
	f.pos++
	return fn(dest...)
}

func (f *fakeCouponRows) Err() error { return nil }

func couponRow(code string) func(dest ...interface{}) error {
	return func(dest ...interface{}) error {
		*dest[0].(*uuid.UUID) = uuid.New()
		*dest[1].(*string) = code
		*dest[2].(*coupon.DiscountKind) = coupon.DiscountFlat
		*dest[3].(*int64) = 5000
		*dest[9].(*string) = "flat ₹50 off"
		*dest[12].(*bool) = true
		*dest[13].(*time.Time) = time.Now()
		*dest[14].(*time.Time) = time.Now()
		return nil
	}
}

func TestCollect_LogsAndSkipsUnscannableRows(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	repo := NewCouponRepository(nil, zap.New(core))

	rows := &fakeCouponRows{scans: []func(dest ...interface{}) error{
		func(dest ...interface{}) error { return errors.New("corrupt row") },
		couponRow("SAVE50"),
	}}

	rules, err := repo.collect(rows)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "SAVE50", rules[0].Code)
	assert.Equal(t, 1, logs.FilterMessage("Failed to scan coupon row").Len())
}

func TestCollect_AllRowsScan(t *testing.T) {
	repo := NewCouponRepository(nil, zap.NewNop())

	rows := &fakeCouponRows{scans: []func(dest ...interface{}) error{
		couponRow("WELCOME10"),
		couponRow("SAVE50"),
	}}

	rules, err := repo.collect(rows)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "WELCOME10", rules[0].Code)
	assert.Equal(t, "SAVE50", rules[1].Code)
}
