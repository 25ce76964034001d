package persistence

import (
	"bufio"
	"encoding/binary"
	"io"
)

var order = binary.LittleEndian

// Writer writes little-endian fields and remembers the first error.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

// NewWriter creates a Writer. Writes go straight to w; wrap w in a
// bufio.Writer for many small fields.
func NewWriter(w io.Writer) *Writer {
	if pw, ok := w.(*Writer); ok {
		return pw
	}
	return &Writer{w: w}
}

// Write implements io.Writer.
func (pw *Writer) Write(p []byte) (int, error) {
	if pw.err != nil {
		return 0, pw.err
	}
	n, err := pw.w.Write(p)
	pw.n += int64(n)
	pw.err = err
	return n, err
}

// N returns the number of bytes written so far.
func (pw *Writer) N() int64 { return pw.n }

// Err returns the first error encountered.
func (pw *Writer) Err() error { return pw.err }

// Int32 writes v.
func (pw *Writer) Int32(v int32) {
	order.PutUint32(pw.buf[:4], uint32(v))
	_, _ = pw.Write(pw.buf[:4])
}

// Int64 writes v.
func (pw *Writer) Int64(v int64) {
	order.PutUint64(pw.buf[:8], uint64(v))
	_, _ = pw.Write(pw.buf[:8])
}

// Float32 writes v.
func (pw *Writer) Float32(v float32) {
	_ = binary.Write(pw, order, v)
}

// Float64 writes v.
func (pw *Writer) Float64(v float64) {
	_ = binary.Write(pw, order, v)
}

// Byte writes a single byte.
func (pw *Writer) Byte(b byte) {
	pw.buf[0] = b
	_, _ = pw.Write(pw.buf[:1])
}

// Bool writes b as a single byte.
func (pw *Writer) Bool(b bool) {
	if b {
		pw.Byte(1)
		return
	}
	pw.Byte(0)
}

// CString writes s followed by a nul byte.
func (pw *Writer) CString(s string) {
	_, _ = io.WriteString(pw, s)
	pw.Byte(0)
}

// Bytes writes b verbatim.
func (pw *Writer) Bytes(b []byte) {
	if len(b) > 0 {
		_, _ = pw.Write(b)
	}
}

// Float32Slice writes vec as raw little-endian float32 values.
func (pw *Writer) Float32Slice(vec []float32) {
	if len(vec) == 0 || pw.err != nil {
		return
	}
	if littleEndian {
		if err := validateFloat32SliceAlignment(vec); err != nil {
			pw.err = err
			return
		}
		_, _ = pw.Write(float32Bytes(vec))
		return
	}
	_ = binary.Write(pw, order, vec)
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Reader reads little-endian fields and remembers the first error.
type Reader struct {
	r   byteReader
	n   int64
	err error
	buf [8]byte
}

// NewReader creates a Reader. If r is not an io.ByteReader it is wrapped in
// a bufio.Reader, which may read past the fields consumed here.
func NewReader(r io.Reader) *Reader {
	if pr, ok := r.(*Reader); ok {
		return pr
	}
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	if pr.err != nil {
		return 0, pr.err
	}
	n, err := pr.r.Read(p)
	pr.n += int64(n)
	if err != nil && err != io.EOF {
		pr.err = err
	}
	return n, err
}

// ReadByte implements io.ByteReader.
func (pr *Reader) ReadByte() (byte, error) {
	if pr.err != nil {
		return 0, pr.err
	}
	b, err := pr.r.ReadByte()
	if err != nil {
		pr.err = err
		return 0, err
	}
	pr.n++
	return b, nil
}

// N returns the number of bytes consumed so far.
func (pr *Reader) N() int64 { return pr.n }

// Err returns the first error encountered.
func (pr *Reader) Err() error { return pr.err }

func (pr *Reader) full(p []byte) bool {
	if pr.err != nil {
		return false
	}
	if _, err := io.ReadFull(pr, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		pr.err = err
		return false
	}
	return true
}

// Int32 reads an int32. It returns 0 once an error occurred.
func (pr *Reader) Int32() int32 {
	if !pr.full(pr.buf[:4]) {
		return 0
	}
	return int32(order.Uint32(pr.buf[:4]))
}

// Int64 reads an int64.
func (pr *Reader) Int64() int64 {
	if !pr.full(pr.buf[:8]) {
		return 0
	}
	return int64(order.Uint64(pr.buf[:8]))
}

// Float32 reads a float32.
func (pr *Reader) Float32() float32 {
	var v float32
	if pr.err == nil {
		if err := binary.Read(pr, order, &v); err != nil {
			pr.err = err
		}
	}
	return v
}

// Float64 reads a float64.
func (pr *Reader) Float64() float64 {
	var v float64
	if pr.err == nil {
		if err := binary.Read(pr, order, &v); err != nil {
			pr.err = err
		}
	}
	return v
}

// Byte reads a single byte.
func (pr *Reader) Byte() byte {
	b, _ := pr.ReadByte()
	return b
}

// Bool reads a byte written by Writer.Bool.
func (pr *Reader) Bool() bool { return pr.Byte() != 0 }

// CString reads bytes up to and excluding the next nul byte.
func (pr *Reader) CString() string {
	var out []byte
	for {
		b, err := pr.ReadByte()
		if err != nil {
			return ""
		}
		if b == 0 {
			return string(out)
		}
		out = append(out, b)
	}
}

// Bytes fills p.
func (pr *Reader) Bytes(p []byte) { pr.full(p) }

// Float32Slice fills vec with raw little-endian float32 values.
func (pr *Reader) Float32Slice(vec []float32) {
	if len(vec) == 0 || pr.err != nil {
		return
	}
	if littleEndian {
		if err := validateFloat32SliceAlignment(vec); err != nil {
			pr.err = err
			return
		}
		pr.full(float32Bytes(vec))
		return
	}
	if err := binary.Read(pr, order, vec); err != nil {
		pr.err = err
	}
}
