package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"unicode/utf8"
)

// Protocol limits to prevent DoS attacks.
const (
	// DefaultMaxBulkLen matches the proto-max-bulk-len default of Redis (512MB).
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxArrayLen limits the number of elements in one array.
	DefaultMaxArrayLen = 1024 * 1024

	// DefaultMaxLineLen limits simple string, error and header lines (64KB).
	DefaultMaxLineLen = 64 * 1024

	// DefaultMaxDepth limits array nesting.
	DefaultMaxDepth = 128

	// bulkChunk is the largest allocation made ahead of received bulk data.
	bulkChunk = 64 * 1024

	// arrayPrealloc caps the element capacity reserved from a declared count.
	arrayPrealloc = 64
)

var (
	// ErrProtocol is wrapped by every decoding error caused by malformed input.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded is returned when a declared size or the nesting depth
	// exceeds the decoder limits. It wraps ErrProtocol.
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocol)
)

// Limits bounds what a Decoder accepts. Zero fields use the defaults.
type Limits struct {
	MaxBulkLen  int
	MaxArrayLen int
	MaxLineLen  int
	MaxDepth    int
}

// DefaultLimits returns the default decoder limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxLineLen:  DefaultMaxLineLen,
		MaxDepth:    DefaultMaxDepth,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxBulkLen > 0 {
		d.MaxBulkLen = l.MaxBulkLen
	}
	if l.MaxArrayLen > 0 {
		d.MaxArrayLen = l.MaxArrayLen
	}
	if l.MaxLineLen > 0 {
		d.MaxLineLen = l.MaxLineLen
	}
	if l.MaxDepth > 0 {
		d.MaxDepth = l.MaxDepth
	}
	return d
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLimits sets the decoder limits.
func WithLimits(l Limits) DecoderOption {
	return func(d *Decoder) {
		d.limits = l.withDefaults()
	}
}

// Decoder reads RESP values from a byte stream.
type Decoder struct {
	br     *bufio.Reader
	limits Limits
}

// NewDecoder returns a Decoder reading from r. A *bufio.Reader is used
// directly; any other reader is wrapped in one.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &Decoder{
		br:     br,
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the next value.
//
// It returns io.EOF, unwrapped, when the stream ends before the first byte of
// a value. Malformed input, including a stream that ends part way through a
// value, yields an error wrapping ErrProtocol. Other reader errors are
// returned unchanged.
func (d *Decoder) Decode() (Value, error) {
	return d.decode(0)
}

// Buffered returns the number of bytes already read from the stream but not
// yet decoded.
func (d *Decoder) Buffered() int {
	return d.br.Buffered()
}

func (d *Decoder) decode(depth int) (Value, error) {
	prefix, err := d.br.ReadByte()
	if err != nil {
		return Value{}, err
	}

	switch prefix {
	case prefixSimpleString:
		line, err := d.readLine()
		if err != nil {
			return Value{}, err
		}
		return SimpleString(line), nil
	case prefixError:
		line, err := d.readLine()
		if err != nil {
			return Value{}, err
		}
		return Error(line), nil
	case prefixInteger:
		n, err := d.readInt("integer")
		if err != nil {
			return Value{}, err
		}
		return Integer(n), nil
	case prefixBulkString:
		return d.readBulk()
	case prefixArray:
		return d.readArray(depth)
	default:
		// The rest of the line is dropped with it, so one bad line yields one error.
		if _, err := d.readLine(); err != nil {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("%w: unknown type byte %q", ErrProtocol, prefix)
	}
}

func (d *Decoder) readBulk() (Value, error) {
	n, err := d.readInt("bulk length")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Null(), nil
	}
	if n < 0 {
		return Value{}, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, n)
	}
	if n > int64(d.limits.MaxBulkLen) {
		return Value{}, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, d.limits.MaxBulkLen)
	}

	payload, err := d.readPayload(int(n))
	if err != nil {
		return Value{}, err
	}
	// The two terminator bytes must be present; their content is not checked.
	if _, err := d.br.Discard(2); err != nil {
		return Value{}, unexpected(err)
	}
	return BulkString(payload), nil
}

// readPayload reads exactly n bytes, growing the buffer as data arrives so a
// large declared length alone does not reserve memory.
func (d *Decoder) readPayload(n int) ([]byte, error) {
	if n <= bulkChunk {
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.br, buf); err != nil {
			return nil, unexpected(err)
		}
		return buf, nil
	}

	buf := make([]byte, 0, bulkChunk)
	for len(buf) < n {
		step := min(n-len(buf), bulkChunk)
		buf = slices.Grow(buf, step)
		m, err := io.ReadFull(d.br, buf[len(buf):len(buf)+step])
		buf = buf[:len(buf)+m]
		if err != nil {
			return nil, unexpected(err)
		}
	}
	return buf, nil
}

func (d *Decoder) readArray(depth int) (Value, error) {
	n, err := d.readInt("array length")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Null(), nil
	}
	if n < 0 {
		return Value{}, fmt.Errorf("%w: invalid array length %d", ErrProtocol, n)
	}
	if n > int64(d.limits.MaxArrayLen) {
		return Value{}, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, d.limits.MaxArrayLen)
	}
	if depth >= d.limits.MaxDepth {
		return Value{}, fmt.Errorf("%w: array nesting exceeds %d", ErrLimitExceeded, d.limits.MaxDepth)
	}

	elems := make([]Value, 0, min(n, arrayPrealloc))
	for i := int64(0); i < n; i++ {
		v, err := d.decode(depth + 1)
		if err != nil {
			if err == io.EOF {
				return Value{}, fmt.Errorf("%w: array truncated after %d of %d elements", ErrProtocol, i, n)
			}
			return Value{}, err
		}
		elems = append(elems, v)
	}
	return Array(elems...), nil
}

func (d *Decoder) readInt(what string) (int64, error) {
	line, err := d.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrProtocol, what, line)
	}
	return n, nil
}

// readLine reads up to and excluding the next CRLF. A LF that is not preceded
// by CR belongs to the line.
func (d *Decoder) readLine() (string, error) {
	var line []byte
	for {
		frag, err := d.br.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > d.limits.MaxLineLen+2 {
			return "", fmt.Errorf("%w: line length exceeds %d", ErrLimitExceeded, d.limits.MaxLineLen)
		}
		if err == nil {
			if len(line) >= 2 && line[len(line)-2] == '\r' {
				break
			}
			continue
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return "", unexpected(err)
	}

	line = line[:len(line)-2]
	if !utf8.Valid(line) {
		return "", fmt.Errorf("%w: line is not valid UTF-8", ErrProtocol)
	}
	return string(line), nil
}

// unexpected converts an end of stream inside a value into a protocol error.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrProtocol, io.ErrUnexpectedEOF)
	}
	return err
}
