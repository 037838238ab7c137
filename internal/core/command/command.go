package command

import (
	"strings"
	"unicode/utf8"

	"github.com/yndnr/memkv/pkg/resp"
)

// Kind identifies a command.
type Kind int

const (
	KindUnknown Kind = iota
	KindSet
	KindGet
	KindDel
	KindQuit
)

// String returns the command name, used as a log attribute and metric label.
func (k Kind) String() string {
	switch k {
	case KindSet:
		return "SET"
	case KindGet:
		return "GET"
	case KindDel:
		return "DEL"
	case KindQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// Command is a single request. Key is set for SET, GET and DEL; Value only
// for SET.
type Command struct {
	Kind  Kind
	Key   string
	Value []byte
}

// Set returns a SET command.
func Set(key string, value []byte) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// Get returns a GET command.
func Get(key string) Command {
	return Command{Kind: KindGet, Key: key}
}

// Del returns a DEL command.
func Del(key string) Command {
	return Command{Kind: KindDel, Key: key}
}

// Quit returns a QUIT command.
func Quit() Command {
	return Command{Kind: KindQuit}
}

// Unknown returns the command used for anything that cannot be translated.
func Unknown() Command {
	return Command{Kind: KindUnknown}
}

// Parse translates the elements of a request array. Malformed requests
// become Unknown; Parse never fails.
func Parse(elems []resp.Value) Command {
	if len(elems) == 0 {
		return Unknown()
	}

	var name string
	switch first := elems[0]; first.Kind {
	case resp.KindBulkString:
		name = asciiUpper(lossyString(first.Bulk))
	case resp.KindSimpleString:
		name = asciiUpper(first.Str)
	default:
		return Unknown()
	}

	switch name {
	case "SET":
		if len(elems) < 3 {
			return Unknown()
		}
		key, val := elems[1], elems[2]
		if key.Kind != resp.KindBulkString || val.Kind != resp.KindBulkString {
			return Unknown()
		}
		// Values stay raw bytes; only keys go through text decoding.
		return Set(lossyString(key.Bulk), val.Bulk)
	case "GET", "DEL":
		if len(elems) != 2 || elems[1].Kind != resp.KindBulkString {
			return Unknown()
		}
		key := lossyString(elems[1].Bulk)
		if name == "GET" {
			return Get(key)
		}
		return Del(key)
	case "QUIT":
		return Quit()
	default:
		return Unknown()
	}
}

// lossyString decodes b as UTF-8, replacing each maximal invalid subpart
// (a lead byte plus the continuation bytes that could still complete it)
// with a single U+FFFD.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidSpan(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidSpan returns the length of the invalid sequence starting at b[0].
// b must not begin with a valid encoding.
func invalidSpan(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	need := 0
	switch c := b[0]; {
	case 0xC2 <= c && c <= 0xDF:
		need = 1
	case c == 0xE0:
		lo, need = 0xA0, 2
	case c == 0xED:
		hi, need = 0x9F, 2
	case 0xE1 <= c && c <= 0xEF:
		need = 2
	case c == 0xF0:
		lo, need = 0x90, 3
	case c == 0xF4:
		hi, need = 0x8F, 3
	case 0xF1 <= c && c <= 0xF3:
		need = 3
	default:
		return 1
	}

	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}

// asciiUpper upper-cases ASCII letters only, leaving other runes untouched.
func asciiUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if 'a' <= s[i] && s[i] <= 'z' {
			return strings.Map(func(r rune) rune {
				if 'a' <= r && r <= 'z' {
					return r - ('a' - 'A')
				}
				return r
			}, s)
		}
	}
	return s
}
