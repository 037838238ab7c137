package command

import (
	"bytes"
	"testing"

	"github.com/yndnr/memkv/pkg/resp"
)

func bulk(s string) resp.Value {
	return resp.BulkString([]byte(s))
}

// ============================================================
// Parse Tests
// ============================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		elems []resp.Value
		want  Command
	}{
		{name: "empty array", elems: nil, want: Unknown()},
		{name: "SET", elems: []resp.Value{bulk("SET"), bulk("k"), bulk("v")}, want: Set("k", []byte("v"))},
		{name: "set lower case", elems: []resp.Value{bulk("set"), bulk("k"), bulk("v")}, want: Set("k", []byte("v"))},
		{name: "SET mixed case", elems: []resp.Value{bulk("sEt"), bulk("k"), bulk("v")}, want: Set("k", []byte("v"))},
		{name: "SET extra args ignored", elems: []resp.Value{bulk("SET"), bulk("k"), bulk("v"), bulk("EX"), bulk("10")}, want: Set("k", []byte("v"))},
		{name: "SET simple string name", elems: []resp.Value{resp.SimpleString("SET"), bulk("k"), bulk("v")}, want: Set("k", []byte("v"))},
		{name: "SET too few args", elems: []resp.Value{bulk("SET"), bulk("k")}, want: Unknown()},
		{name: "SET key not bulk", elems: []resp.Value{bulk("SET"), resp.SimpleString("k"), bulk("v")}, want: Unknown()},
		{name: "SET value not bulk", elems: []resp.Value{bulk("SET"), bulk("k"), resp.Integer(1)}, want: Unknown()},
		{name: "SET null value", elems: []resp.Value{bulk("SET"), bulk("k"), resp.Null()}, want: Unknown()},
		{name: "GET", elems: []resp.Value{bulk("GET"), bulk("k")}, want: Get("k")},
		{name: "get lower case", elems: []resp.Value{bulk("get"), bulk("k")}, want: Get("k")},
		{name: "GET no key", elems: []resp.Value{bulk("GET")}, want: Unknown()},
		{name: "GET too many args", elems: []resp.Value{bulk("GET"), bulk("a"), bulk("b")}, want: Unknown()},
		{name: "GET key not bulk", elems: []resp.Value{bulk("GET"), resp.Integer(5)}, want: Unknown()},
		{name: "DEL", elems: []resp.Value{bulk("DEL"), bulk("k")}, want: Del("k")},
		{name: "DEL multiple keys", elems: []resp.Value{bulk("DEL"), bulk("a"), bulk("b")}, want: Unknown()},
		{name: "QUIT", elems: []resp.Value{bulk("QUIT")}, want: Quit()},
		{name: "quit with args", elems: []resp.Value{bulk("quit"), bulk("now"), resp.Integer(1)}, want: Quit()},
		{name: "unknown name", elems: []resp.Value{bulk("PING")}, want: Unknown()},
		{name: "first element integer", elems: []resp.Value{resp.Integer(1), bulk("k")}, want: Unknown()},
		{name: "first element array", elems: []resp.Value{resp.Array(bulk("GET")), bulk("k")}, want: Unknown()},
		{name: "first element null", elems: []resp.Value{resp.Null()}, want: Unknown()},
		{name: "first element error", elems: []resp.Value{resp.Error("GET"), bulk("k")}, want: Unknown()},
		{name: "non ASCII fold not applied", elems: []resp.Value{bulk("ſet"), bulk("k"), bulk("v")}, want: Unknown()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.elems)
			if got.Kind != tt.want.Kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.want.Kind)
			}
			if got.Key != tt.want.Key {
				t.Errorf("Key = %q, want %q", got.Key, tt.want.Key)
			}
			if !bytes.Equal(got.Value, tt.want.Value) {
				t.Errorf("Value = %q, want %q", got.Value, tt.want.Value)
			}
		})
	}
}

func TestParse_BinaryValueUntouched(t *testing.T) {
	value := []byte{0xde, 0xad, 0xbe, 0xef, 0xff, 0x00}
	cmd := Parse([]resp.Value{bulk("SET"), bulk("k"), resp.BulkString(value)})

	if cmd.Kind != KindSet {
		t.Fatalf("Kind = %v, want SET", cmd.Kind)
	}
	if !bytes.Equal(cmd.Value, value) {
		t.Errorf("Value = %x, want %x", cmd.Value, value)
	}
}

func TestParse_LossyKey(t *testing.T) {
	cmd := Parse([]resp.Value{bulk("GET"), resp.BulkString([]byte{'a', 0xff, 'b'})})

	if cmd.Kind != KindGet {
		t.Fatalf("Kind = %v, want GET", cmd.Kind)
	}
	if cmd.Key != "a�b" {
		t.Errorf("Key = %q, want %q", cmd.Key, "a�b")
	}
}

func TestParse_LossyKeyTruncatedSequence(t *testing.T) {
	truncated := Parse([]resp.Value{bulk("GET"), resp.BulkString([]byte{0xe2, 0x82, 'A'})})
	single := Parse([]resp.Value{bulk("GET"), resp.BulkString([]byte{0xff, 'A'})})

	if truncated.Key != single.Key {
		t.Errorf("keys differ: %q vs %q", truncated.Key, single.Key)
	}
	if truncated.Key != "\uFFFDA" {
		t.Errorf("Key = %q, want %q", truncated.Key, "\uFFFDA")
	}
}

func TestParse_LossyCommandName(t *testing.T) {
	cmd := Parse([]resp.Value{resp.BulkString([]byte{'G', 'E', 'T', 0xff}), bulk("k")})
	if cmd.Kind != KindUnknown {
		t.Errorf("Kind = %v, want UNKNOWN", cmd.Kind)
	}
}

func TestLossyString(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain"), "plain"},
		{[]byte("héllo"), "héllo"},
		{[]byte{0xff}, "�"},
		{[]byte{0xff, 0xfe}, "��"},
		{[]byte{'x', 0xc3}, "x�"},
		{[]byte{0xe2, 0x82, 0x41}, "\uFFFDA"},
		{[]byte{0xf0, 0x9f, 0x98}, "\uFFFD"},
		{[]byte{0xf0, 0x9f, 0x98, 0xe2, 0x82}, "\uFFFD\uFFFD"},
		{[]byte{0xe0, 0x80, 0x41}, "\uFFFD\uFFFDA"},
		{[]byte{0xed, 0xa0, 0x80}, "\uFFFD\uFFFD\uFFFD"},
		{[]byte{0xc0, 0xaf}, "\uFFFD\uFFFD"},
		{[]byte{0xf4, 0x90, 0x80, 0x80}, "\uFFFD\uFFFD\uFFFD\uFFFD"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := lossyString(tt.in); got != tt.want {
			t.Errorf("lossyString(%x) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	want := map[Kind]string{
		KindSet:     "SET",
		KindGet:     "GET",
		KindDel:     "DEL",
		KindQuit:    "QUIT",
		KindUnknown: "UNKNOWN",
		Kind(42):    "UNKNOWN",
	}
	for k, w := range want {
		if got := k.String(); got != w {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, w)
		}
	}
}
