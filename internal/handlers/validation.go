package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expenses/internal/models"
	"expenses/internal/money"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxPage         = 1 << 30
	dateLayout      = "2006-01-02"
)

var (
	errInvalidID   = errors.New("invalid id")
	errInvalidTime = errors.New("timestamps must be RFC3339 or YYYY-MM-DD")
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func parseIntParam(values url.Values, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < lo || value > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return value, nil
}

// parseTimeParam reads an RFC3339 timestamp or a calendar date in UTC. With
// endOfDay set a bare date stands for its last microsecond.
func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, errInvalidTime
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Microsecond), nil
	}
	return day, nil
}

// parseAmountParam reads an amount bound. Bounds are compared exactly, so
// they are not held to the scale or range of stored amounts.
func parseAmountParam(values url.Values, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, money.ErrInvalidAmount)
	}
	return &value, nil
}

func parseExpenseQuery(values url.Values) (int, int, models.ExpenseFilter, error) {
	var filter models.ExpenseFilter
	page, err := parseIntParam(values, "page", 1, 1, maxPage)
	if err != nil {
		return 0, 0, filter, err
	}
	size, err := parseIntParam(values, "size", defaultPageSize, 1, maxPageSize)
	if err != nil {
		return 0, 0, filter, err
	}
	if raw := strings.TrimSpace(values.Get("category_id")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return 0, 0, filter, fmt.Errorf("category_id: %w", err)
		}
		filter.CategoryID = &id
	}
	if filter.MinAmount, err = parseAmountParam(values, "min_amount"); err != nil {
		return 0, 0, filter, err
	}
	if filter.MaxAmount, err = parseAmountParam(values, "max_amount"); err != nil {
		return 0, 0, filter, err
	}
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		from, err := parseTimeParam(raw, false)
		if err != nil {
			return 0, 0, filter, fmt.Errorf("from: %w", err)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		to, err := parseTimeParam(raw, true)
		if err != nil {
			return 0, 0, filter, fmt.Errorf("to: %w", err)
		}
		filter.To = &to
	}
	return page, size, filter, nil
}
