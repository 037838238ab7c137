package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindNull is the zero Kind, so the zero Value is Null.
	KindNull Kind = iota
	KindSimpleString
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// Wire type indicators.
const (
	prefixSimpleString = '+'
	prefixError        = '-'
	prefixInteger      = ':'
	prefixBulkString   = '$'
	prefixArray        = '*'
)

var crlf = []byte("\r\n")

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSimpleString:
		return "simple-string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single RESP value. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	// Str holds SimpleString and Error text.
	Str string
	// Int holds the Integer payload.
	Int int64
	// Bulk holds the BulkString payload.
	Bulk []byte
	// Elems holds the Array elements.
	Elems []Value
}

// SimpleString returns a SimpleString value.
func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

// Error returns an Error value.
func Error(s string) Value {
	return Value{Kind: KindError, Str: s}
}

// Errorf formats an Error value. CR and LF in the result are replaced by
// spaces so text derived from client input cannot break the line framing.
func Errorf(format string, args ...any) Value {
	return Error(stripLineBreaks(fmt.Sprintf(format, args...)))
}

// Integer returns an Integer value.
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// BulkString returns a BulkString value. The slice is retained, not copied.
func BulkString(b []byte) Value {
	return Value{Kind: KindBulkString, Bulk: b}
}

// Array returns an Array value holding elems.
func Array(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// Null returns the Null value.
func Null() Value {
	return Value{}
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Bytes returns the wire encoding of v.
func (v Value) Bytes() []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire encoding of v to dst and returns the
// extended slice. Unknown kinds encode as Null.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		dst = append(dst, prefixSimpleString)
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindError:
		dst = append(dst, prefixError)
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindInteger:
		dst = append(dst, prefixInteger)
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)
	case KindBulkString:
		dst = append(dst, prefixBulkString)
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Bulk...)
		return append(dst, crlf...)
	case KindArray:
		dst = append(dst, prefixArray)
		dst = strconv.AppendInt(dst, int64(len(v.Elems)), 10)
		dst = append(dst, crlf...)
		for _, e := range v.Elems {
			dst = AppendValue(dst, e)
		}
		return dst
	default:
		return append(dst, "$-1\r\n"...)
	}
}

// Equal reports whether v and o hold the same variant and payload.
// A nil and an empty bulk payload compare equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindSimpleString, KindError:
		return v.Str == o.Str
	case KindInteger:
		return v.Int == o.Int
	case KindBulkString:
		return bytes.Equal(v.Bulk, o.Bulk)
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String returns a debug representation of v.
func (v Value) String() string {
	switch v.Kind {
	case KindSimpleString:
		return "+" + v.Str
	case KindError:
		return "-" + v.Str
	case KindInteger:
		return ":" + strconv.FormatInt(v.Int, 10)
	case KindBulkString:
		return strconv.Quote(string(v.Bulk))
	case KindArray:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "(nil)"
	}
}

func stripLineBreaks(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
