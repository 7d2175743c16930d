// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, ISO dates and numeric query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields,
// trailing data and bodies over 1 MiB.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty request body", errInvalidInput)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body too large", errInvalidInput)
		default:
			return fmt.Errorf("%w: malformed JSON: %v", errInvalidInput, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", errInvalidInput)
	}
	return nil
}

// ParseDate parses YYYY-MM-DD as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", core.ErrInvalidDate, s)
	}
	return t.UTC(), nil
}

// ParseOptionalDate returns the zero time for an empty value.
func ParseOptionalDate(query url.Values, key string) (time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	return ParseDate(v)
}

// ParseOptionalInt returns nil for an empty value and rejects negatives.
func ParseOptionalInt(query url.Values, key string) (*int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidInput, key)
	}
	return &n, nil
}

// ParseLimit reads the limit query parameter; zero means the service default.
func ParseLimit(query url.Values) (int, error) {
	n, err := ParseOptionalInt(query, "limit")
	if err != nil || n == nil {
		return 0, err
	}
	return *n, nil
}

// ParseMoney accepts a JSON number or numeric string.
func ParseMoney(n json.Number) (core.Money, error) {
	return core.ParseMoney(n.String())
}
