package output

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/memkv/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter writes a reply.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Reply is the structured form of a server reply.
type Reply struct {
	Type     string `json:"type" yaml:"type"`
	Value    any    `json:"value" yaml:"value"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// NewReply converts v into its structured form.
func NewReply(v resp.Value) Reply {
	r := Reply{Type: v.Kind.String()}
	switch v.Kind {
	case resp.KindSimpleString, resp.KindError:
		r.Value = v.Str
	case resp.KindInteger:
		r.Value = v.Int
	case resp.KindBulkString:
		if utf8.Valid(v.Bulk) {
			r.Value = string(v.Bulk)
		} else {
			r.Value = base64.StdEncoding.EncodeToString(v.Bulk)
			r.Encoding = "base64"
		}
	case resp.KindArray:
		elems := make([]Reply, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = NewReply(e)
		}
		r.Value = elems
	}
	return r
}
