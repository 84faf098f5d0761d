package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CoordinatePrecision is the number of decimal places kept for coordinate
// columns and geometry-derived values (~11cm at the equator).
const CoordinatePrecision = 6

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// CoerceCategory converts a raw attribute value into a category cell,
// trimming surrounding whitespace. Nulls pass through as null.
func CoerceCategory(raw any) (Value, error) {
	if raw == nil {
		return Null(KindCategory), nil
	}
	s, ok := raw.(string)
	if !ok {
		return Null(KindCategory), fmt.Errorf("category value %v (%T) is not a string", raw, raw)
	}
	return Category(strings.TrimSpace(s)), nil
}

// CoerceFloat converts a raw attribute value into a float cell. String input
// is normalized from decimal comma to decimal point before parsing, and the
// result is rounded to six decimal places. Nulls pass through as null; an
// unparseable value is an error, never silently absorbed.
func CoerceFloat(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(KindFloat), nil
	case float64:
		return Float(Round(v, CoordinatePrecision)), nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return Null(KindFloat), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null(KindFloat), fmt.Errorf("unparseable float %q", v)
		}
		return Float(Round(f, CoordinatePrecision)), nil
	default:
		return Null(KindFloat), fmt.Errorf("float value %v (%T) has unsupported type", raw, raw)
	}
}

// CoerceInt converts a raw attribute value into an int cell. JSON numbers
// and digit strings are accepted; nulls pass through as null and are never
// coerced to zero.
func CoerceInt(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(KindInt), nil
	case float64:
		if v != math.Trunc(v) {
			return Null(KindInt), fmt.Errorf("int value %v has a fractional part", v)
		}
		return Integer(int64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Null(KindInt), nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Null(KindInt), fmt.Errorf("unparseable int %q", v)
		}
		return Integer(i), nil
	default:
		return Null(KindInt), fmt.Errorf("int value %v (%T) has unsupported type", raw, raw)
	}
}

// CoerceDate converts a raw attribute value into a date cell using the exact
// source layout "DD.MM.YYYY". Nulls pass through; anything else must parse.
func CoerceDate(raw any) (Value, error) {
	const sourceLayout = "02.01.2006"

	switch v := raw.(type) {
	case nil:
		return Null(KindDate), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Null(KindDate), nil
		}
		t, err := time.Parse(sourceLayout, s)
		if err != nil {
			return Null(KindDate), fmt.Errorf("unparseable date %q (want DD.MM.YYYY)", v)
		}
		return Date(t), nil
	default:
		return Null(KindDate), fmt.Errorf("date value %v (%T) is not a string", raw, raw)
	}
}

// FloatOrNull parses a numeric string into a float cell, returning null on
// any failure. The obstacle source is known to contain non-numeric noise in
// numeric fields, so coercion failure there is data noise, not format drift.
func FloatOrNull(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null(KindFloat)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(KindFloat)
	}
	return Float(f)
}
