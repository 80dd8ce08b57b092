package http

import (
	"divebook/pkg/config"
	apperrors "divebook/pkg/errors"
	"net/http"
	"strconv"
	"time"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDateRange reads start_date/end_date query parameters (RFC 3339 or
// plain YYYY-MM-DD). A missing range defaults to the next defaultDays days.
func ExtractDateRange(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	query := r.URL.Query()

	from, err := parseDateParam(query.Get("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid start_date parameter: " + query.Get("start_date"))
	}
	to, err := parseDateParam(query.Get("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid end_date parameter: " + query.Get("end_date"))
	}

	now := time.Now().UTC()
	if from.IsZero() {
		from = now.Truncate(24 * time.Hour)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultDays)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("end_date must be after start_date")
	}

	return from, to, nil
}

func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
