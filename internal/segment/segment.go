package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/internal/hash"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/word"
)

const (
	magic      = 0x47534757 // "WGSG"
	version    = 1
	headerSize = 16

	statusResolved   = 0
	statusUnresolved = 1
)

// ErrCorrupt is returned for blobs that fail validation.
var ErrCorrupt = errors.New("corrupt segment")

// Name returns the blob name of the segment covering r.
func Name(r matrix.Range) string {
	return fmt.Sprintf("SEG-%06d-%06d.seg", r.Start, r.End)
}

// Encode serializes a batch.
func Encode(b *matrix.Batch, c Compression) ([]byte, error) {
	w := &writer{}
	w.u32(uint32(b.Range.Start))
	w.u32(uint32(b.Range.End))
	w.u32(uint32(b.Rows()))

	for row := 0; row < b.Rows(); row++ {
		for col := 0; col < b.Width(); col++ {
			cell := b.Cell(row, col)
			if cell.Resolved() {
				data, err := cell.Set.MarshalBinary()
				if err != nil {
					return nil, err
				}
				w.buf = append(w.buf, statusResolved)
				w.u32(uint32(len(data)))
				w.buf = append(w.buf, data...)
				continue
			}
			w.buf = append(w.buf, statusUnresolved)
			w.str(reason(cell.Err))
		}
	}

	payload, used, err := compress(w.buf, c)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, 5+len(payload))
	body = append(body, byte(used))
	body = binary.LittleEndian.AppendUint32(body, uint32(len(w.buf)))
	body = append(body, payload...)

	out := make([]byte, headerSize, headerSize+len(body))
	binary.LittleEndian.PutUint32(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], version)
	binary.LittleEndian.PutUint32(out[8:12], hash.CRC32C(body))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(body)))
	return append(out, body...), nil
}

// Decode parses a segment blob against the dictionary it was built from.
// Unresolved cells come back as *matrix.ComputationError cells.
func Decode(data []byte, dict *word.Dictionary) (*matrix.Batch, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if m := binary.LittleEndian.Uint32(data[0:4]); m != magic {
		return nil, fmt.Errorf("%w: invalid magic %#x", ErrCorrupt, m)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	length := binary.LittleEndian.Uint32(data[12:16])

	body := data[headerSize:]
	if uint64(len(body)) != uint64(length) {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(body), length)
	}
	if !hash.Verify(body, checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if len(body) < 5 {
		return nil, fmt.Errorf("%w: truncated body", ErrCorrupt)
	}

	payload, err := decompress(body[5:], Compression(body[0]), int(binary.LittleEndian.Uint32(body[1:5])))
	if err != nil {
		return nil, err
	}

	r := &reader{buf: payload}
	rng := matrix.Range{Start: int(r.u32()), End: int(r.u32())}
	rows := int(r.u32())
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, r.err)
	}
	if err := rng.Validate(dict.Len()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rows != dict.Len() {
		return nil, fmt.Errorf("%w: %d rows for a dictionary of %d words", ErrCorrupt, rows, dict.Len())
	}

	words := dict.Words()
	b := matrix.NewBatch(rng, words[rng.Start:rng.End], words)

	for row := 0; row < rows; row++ {
		for col := 0; col < rng.Len(); col++ {
			switch r.u8() {
			case statusResolved:
				set := bitmap.New()
				if err := set.UnmarshalBinary(r.bytes(int(r.u32()))); err != nil && r.err == nil {
					r.err = err
				}
				b.SetCell(row, col, matrix.Cell{Set: set})
			case statusUnresolved:
				b.SetCell(row, col, matrix.Cell{Err: &matrix.ComputationError{
					Guess:  b.Guesses[col],
					Answer: b.Answers[row],
					Cause:  errors.New(r.str()),
				}})
			default:
				if r.err == nil {
					r.err = errors.New("invalid cell status")
				}
			}
			if r.err != nil {
				return nil, fmt.Errorf("%w: cell (%d,%d): %v", ErrCorrupt, row, col, r.err)
			}
		}
	}
	if r.pos != len(r.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(r.buf)-r.pos)
	}
	return b, nil
}

func reason(err error) string {
	if err == nil {
		return "not computed"
	}
	var ce *matrix.ComputationError
	if errors.As(err, &ce) && ce.Cause != nil {
		err = ce.Cause
	}
	s := err.Error()
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	return s
}

type writer struct {
	buf []byte
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) str(s string) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() byte {
	b := r.bytes(1)
	if b == nil {
		return 0xff
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) str() string {
	b := r.bytes(2)
	if b == nil {
		return ""
	}
	return string(r.bytes(int(binary.LittleEndian.Uint16(b))))
}
