// Package compress frames a byte stream into independently compressed
// blocks.
//
// Stream format:
//
//	magic "SWZ\x01" | algorithm (1 byte)
//	block*: [uncompressed uint32][compressed uint32][crc32c uint32][data]
//	end:    twelve zero bytes
//
// A block whose compressed size is 0 is stored raw. The checksum covers
// the uncompressed bytes.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/subword/internal/hash"
)

// Algorithm selects the block compressor.
type Algorithm uint8

const (
	// None stores blocks raw.
	None Algorithm = 0
	// LZ4 favors speed.
	LZ4 Algorithm = 1
	// ZSTD favors ratio.
	ZSTD Algorithm = 2
)

// DefaultBlockSize is the uncompressed block size used when none is given.
const DefaultBlockSize = 256 * 1024

const (
	magic           = "SWZ\x01"
	blockHeaderSize = 12
	maxBlockSize    = 64 << 20
)

var (
	// ErrCorrupt is returned for malformed streams and checksum mismatches.
	ErrCorrupt = errors.New("compress: corrupt stream")
	// ErrNotCompressed is returned when a stream lacks the magic prefix.
	ErrNotCompressed = errors.New("compress: not a compressed stream")
)


func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm parses "none", "lz4" or "zstd".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("compress: unknown algorithm %q", s)
	}
}

// IsCompressed reports whether prefix starts with the stream magic.
func IsCompressed(prefix []byte) bool {
	return bytes.HasPrefix(prefix, []byte(magic))
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compressBlock returns the compressed form of data, or nil when
// compression saves less than 10%.
func compressBlock(data []byte, alg Algorithm) ([]byte, error) {
	var out []byte
	switch alg {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		out = buf[:n]
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, nil
	}
	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return nil, nil
	}
	return out, nil
}

func decompressBlock(dst, src []byte, alg Algorithm) ([]byte, error) {
	switch alg {
	case LZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return dst[:n], nil
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed block with algorithm %s", ErrCorrupt, alg)
	}
}

// Writer compresses everything written to it. Close must be called to
// flush the last block and write the end marker; it does not close the
// underlying writer.
type Writer struct {
	w         io.Writer
	alg       Algorithm
	blockSize int
	buf       []byte
	header    bool
	written   int64
	closed    bool
}

// NewWriter creates a Writer. blockSize <= 0 selects DefaultBlockSize.
func NewWriter(w io.Writer, alg Algorithm, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	blockSize = min(blockSize, maxBlockSize)
	return &Writer{
		w:         w,
		alg:       alg,
		blockSize: blockSize,
		buf:       make([]byte, 0, blockSize),
	}
}

func (c *Writer) emit(p []byte) error {
	n, err := c.w.Write(p)
	c.written += int64(n)
	return err
}

func (c *Writer) writeHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	return c.emit(append([]byte(magic), byte(c.alg)))
}

// Write buffers p, flushing full blocks.
func (c *Writer) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("compress: write after close")
	}
	total := 0
	for len(p) > 0 {
		space := c.blockSize - len(c.buf)
		if space == 0 {
			if err := c.Flush(); err != nil {
				return total, err
			}
			space = c.blockSize
		}
		n := min(space, len(p))
		c.buf = append(c.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush writes the buffered bytes as one block.
func (c *Writer) Flush() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	if len(c.buf) == 0 {
		return nil
	}

	compressed, err := compressBlock(c.buf, c.alg)
	if err != nil {
		return err
	}
	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(c.buf)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(hdr[8:], hash.CRC32C(c.buf))
	if err := c.emit(hdr[:]); err != nil {
		return err
	}
	payload := compressed
	if payload == nil {
		payload = c.buf
	}
	if err := c.emit(payload); err != nil {
		return err
	}
	c.buf = c.buf[:0]
	return nil
}

// Close flushes the last block and writes the end marker.
func (c *Writer) Close() error {
	if c.closed {
		return nil
	}
	if err := c.Flush(); err != nil {
		return err
	}
	c.closed = true
	var end [blockHeaderSize]byte
	return c.emit(end[:])
}

// BytesWritten returns the number of bytes written to the underlying writer.
func (c *Writer) BytesWritten() int64 { return c.written }

// Reader decompresses a stream produced by Writer.
type Reader struct {
	r     io.Reader
	alg   Algorithm
	block []byte
	raw   []byte
	pos   int
	done  bool
}

// NewReader reads the stream header from r.
func NewReader(r io.Reader) (*Reader, error) {
	var hdr [len(magic) + 1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotCompressed
		}
		return nil, err
	}
	if !IsCompressed(hdr[:]) {
		return nil, ErrNotCompressed
	}
	alg := Algorithm(hdr[len(magic)])
	if alg > ZSTD {
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorrupt, alg)
	}
	return &Reader{r: r, alg: alg}, nil
}

// Algorithm returns the stream's compressor.
func (c *Reader) Algorithm() Algorithm { return c.alg }

func (c *Reader) next() error {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: missing end marker", ErrCorrupt)
		}
		return err
	}
	usize := binary.LittleEndian.Uint32(hdr[0:])
	csize := binary.LittleEndian.Uint32(hdr[4:])
	sum := binary.LittleEndian.Uint32(hdr[8:])
	if usize == 0 && csize == 0 {
		c.done = true
		return io.EOF
	}
	if usize > maxBlockSize || csize > maxBlockSize {
		return fmt.Errorf("%w: block of %d bytes", ErrCorrupt, max(usize, csize))
	}

	if cap(c.block) < int(usize) {
		c.block = make([]byte, usize)
	}
	c.block = c.block[:usize]

	if csize == 0 {
		if _, err := io.ReadFull(c.r, c.block); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	} else {
		if cap(c.raw) < int(csize) {
			c.raw = make([]byte, csize)
		}
		c.raw = c.raw[:csize]
		if _, err := io.ReadFull(c.r, c.raw); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out, err := decompressBlock(c.block, c.raw, c.alg)
		if err != nil {
			return err
		}
		if len(out) != int(usize) {
			return fmt.Errorf("%w: block size mismatch", ErrCorrupt)
		}
		c.block = out
	}
	if hash.CRC32C(c.block) != sum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	c.pos = 0
	return nil
}

// Read implements io.Reader.
func (c *Reader) Read(p []byte) (int, error) {
	for c.pos == len(c.block) {
		if c.done {
			return 0, io.EOF
		}
		if err := c.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.block[c.pos:])
	c.pos += n
	return n, nil
}

// Compress encodes data as a complete stream.
func Compress(data []byte, alg Algorithm) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf, alg, 0)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes a complete stream.
func Decompress(data []byte) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
