package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a RESP array. DEL and
	// EXISTS are the only variadic commands.
	MaxArrayLen = 1024

	// MaxBulkLen limits a single bulk string. It matches the default HTTP
	// body cap so both front-ends accept the same values.
	MaxBulkLen = 4 << 20

	// MaxInlineLen limits an inline command line, terminator included.
	MaxInlineLen = 4 * 1024

	maxHeaderLen = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline command such as "PING\r\n" typed into telnet. A nil slice with a
// nil error means an empty command.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	first, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if first[0] == '*' {
		return readArray(r)
	}
	return readInline(r)
}

func readInline(r *bufio.Reader) ([][]byte, error) {
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return nil, nil
	}
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}
	return args, nil
}

func readArray(r *bufio.Reader) ([][]byte, error) {
	n, err := readHeader(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array of %d elements, max %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	args := make([][]byte, 0, n)
	for range n {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// readBulk reads "$<n>\r\n<n bytes>\r\n". "$-1" is the null bulk string.
func readBulk(r *bufio.Reader) ([]byte, error) {
	n, err := readHeader(r, '$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, fmt.Errorf("%w: negative bulk length %d", ErrProtocol, n)
	case n > MaxBulkLen:
		return nil, fmt.Errorf("%w: bulk of %d bytes, max %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+len(crlf))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	body, ok := bytes.CutSuffix(buf, crlf)
	if !ok {
		return nil, fmt.Errorf("%w: bulk not terminated by CRLF", ErrProtocol)
	}
	return body, nil
}

// readHeader reads a type byte followed by a decimal length.
func readHeader(r *bufio.Reader, kind byte) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != kind {
		return 0, fmt.Errorf("%w: expected '%c' header, got %q", ErrProtocol, kind, line)
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

// readLine returns the next CRLF-terminated line without its terminator.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > limit {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, limit)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}

	body, ok := bytes.CutSuffix(line, crlf)
	if !ok {
		return nil, fmt.Errorf("%w: line not terminated by CRLF", ErrProtocol)
	}
	return body, nil
}

// bufio.Writer errors are sticky, so only the last write result matters.
func writeLine(w *bufio.Writer, kind byte, s string) error {
	w.WriteByte(kind)
	w.WriteString(s)
	_, err := w.Write(crlf)
	return err
}

// WriteSimpleString writes "+s".
func WriteSimpleString(w *bufio.Writer, s string) error {
	return writeLine(w, '+', s)
}

// WriteError writes "-s". By convention s starts with an error kind such
// as ERR or NOAUTH. Line breaks in s are replaced with spaces.
func WriteError(w *bufio.Writer, s string) error {
	return writeLine(w, '-', strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

func WriteInteger(w *bufio.Writer, n int64) error {
	return writeLine(w, ':', strconv.FormatInt(n, 10))
}

func WriteNullBulk(w *bufio.Writer) error {
	return writeLine(w, '$', "-1")
}

// WriteBulk writes b as a bulk string; nil is the null bulk string.
func WriteBulk(w *bufio.Writer, b []byte) error {
	if b == nil {
		return WriteNullBulk(w)
	}
	writeLine(w, '$', strconv.Itoa(len(b)))
	w.Write(b)
	_, err := w.Write(crlf)
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	return writeLine(w, '*', strconv.Itoa(n))
}

// WriteBulkStrings writes ss as an array of bulk strings.
func WriteBulkStrings(w *bufio.Writer, ss []string) error {
	err := WriteArrayHeader(w, len(ss))
	for _, s := range ss {
		err = WriteBulk(w, []byte(s))
	}
	return err
}

func normalizeCommandName(b []byte) string {
	return strings.ToUpper(string(b))
}
