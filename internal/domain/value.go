package domain

import (
	"strconv"
	"time"
)

// DateLayout is the rendered form of date cells in outputs and fingerprints.
const DateLayout = "2006-01-02"

// Value is one nullable dataset cell. The zero Value is a null category cell.
type Value struct {
	Kind  FieldKind
	Str   string
	Num   float64
	Int   int64
	Date  time.Time
	Valid bool
}

// Null returns a null cell of the given kind.
func Null(kind FieldKind) Value {
	return Value{Kind: kind}
}

// Category returns a category cell.
func Category(s string) Value {
	return Value{Kind: KindCategory, Str: s, Valid: true}
}

// Float returns a float cell.
func Float(f float64) Value {
	return Value{Kind: KindFloat, Num: f, Valid: true}
}

// Integer returns an int cell.
func Integer(i int64) Value {
	return Value{Kind: KindInt, Int: i, Valid: true}
}

// Date returns a date cell.
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Date: t, Valid: true}
}

// IsNull reports whether the cell holds no value.
func (v Value) IsNull() bool { return !v.Valid }

// Render returns the stable text form of the cell, used for fingerprinting
// and file output. Null renders as the empty string.
func (v Value) Render() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindCategory:
		return v.Str
	case KindFloat:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return ""
	}
}
