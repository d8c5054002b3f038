package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	number := newOrderNumber(now)
	assert.Regexp(t, `^ORD-20250601-[0-9a-f]{6}$`, number)
}

func TestNewOrderNumber_EntropyFailureStaysUnique(t *testing.T) {
	orig := randRead
	randRead = func([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
	defer func() { randRead = orig }()

	first := newOrderNumber(time.Now())
	second := newOrderNumber(time.Now())

	assert.Regexp(t, `^ORD-\d{8}-[0-9a-f]{6}$`, first)
	assert.NotEqual(t, first, second)
}
