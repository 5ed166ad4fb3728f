package attrbind

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
)

var truthy = map[string]struct{}{
	"yes":     {},
	"true":    {},
	"y":       {},
	"t":       {},
	"1":       {},
	"on":      {},
	"enabled": {},
}

// IsTrue reports whether s is one of the manager's truthy tokens.
func IsTrue(s string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsNull reports whether s is a sentinel the manager uses for "no value".
func IsNull(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<null>", "<unknown>":
		return true
	}
	return false
}

// String binds a string field. Null sentinels clear it.
func String[T any](field func(*T) *string) Setter[T] {
	return Setter[T]{
		Type: "string",
		Set: func(target *T, value string) error {
			if IsNull(value) {
				value = ""
			}
			*field(target) = value
			return nil
		},
	}
}

// Bool binds a bool field using IsTrue.
func Bool[T any](field func(*T) *bool) Setter[T] {
	return Setter[T]{
		Type: "bool",
		Set: func(target *T, value string) error {
			*field(target) = IsTrue(value)
			return nil
		},
	}
}

// BoolPtr binds an optional bool field using IsTrue.
func BoolPtr[T any](field func(*T) **bool) Setter[T] {
	return Setter[T]{
		Type: "*bool",
		Set: func(target *T, value string) error {
			b := IsTrue(value)
			*field(target) = &b
			return nil
		},
	}
}

// Int binds an int field.
func Int[T any](field func(*T) *int) Setter[T] {
	return Setter[T]{
		Type: "int",
		Set: func(target *T, value string) error {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return err
			}
			*field(target) = n
			return nil
		},
	}
}

// IntPtr binds an optional int field.
func IntPtr[T any](field func(*T) **int) Setter[T] {
	return Setter[T]{
		Type: "*int",
		Set: func(target *T, value string) error {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return err
			}
			*field(target) = &n
			return nil
		},
	}
}

// Int64Ptr binds an optional int64 field.
func Int64Ptr[T any](field func(*T) **int64) Setter[T] {
	return Setter[T]{
		Type: "*int64",
		Set: func(target *T, value string) error {
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return err
			}
			*field(target) = &n
			return nil
		},
	}
}

// Float64Ptr binds an optional float64 field.
func Float64Ptr[T any](field func(*T) **float64) Setter[T] {
	return Setter[T]{
		Type: "*float64",
		Set: func(target *T, value string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return err
			}
			*field(target) = &f
			return nil
		},
	}
}

// Text binds a field whose type knows how to parse itself from text.
func Text[T any, V any, PV interface {
	*V
	encoding.TextUnmarshaler
}](field func(*T) *V) Setter[T] {
	var zero V
	return Setter[T]{
		Type: fmt.Sprintf("%T", zero),
		Set: func(target *T, value string) error {
			var v V
			if err := PV(&v).UnmarshalText([]byte(value)); err != nil {
				return err
			}
			*field(target) = v
			return nil
		},
	}
}
