// Package codec implements the Graph/Metrics Codec (spec.md §4.7): a
// compact, length-tagged packed binary format for Graph, Metrics,
// Dataset, per-trial Sample, and joined DataPiece records, plus a
// human-readable JSON diagnostics mirror that is not round-trip-safe with
// the binary form.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxWords bounds total words a single Decode call may read, guarding
// against a corrupt or hostile length prefix driving unbounded
// allocation.
const MaxWords = 128 * 1024 * 1024

// MaxDepth bounds container nesting (graphs nested in dataset entries
// nested in... ) a single Decode call will traverse.
const MaxDepth = 128

// ErrBudgetExceeded is returned when a decode would read past MaxWords.
var ErrBudgetExceeded = errors.New("codec: word budget exceeded")

// ErrDepthExceeded is returned when a decode would nest past MaxDepth.
var ErrDepthExceeded = errors.New("codec: nesting depth exceeded")

// reader tracks the word budget and nesting depth across one Decode call.
type reader struct {
	r           io.Reader
	wordsLeft   int64
	depth       int
}

func newReader(r io.Reader) *reader {
	return &reader{r: r, wordsLeft: MaxWords}
}

func (rd *reader) enter() error {
	rd.depth++
	if rd.depth > MaxDepth {
		return ErrDepthExceeded
	}
	return nil
}

func (rd *reader) leave() { rd.depth-- }

func (rd *reader) charge(words int64) error {
	rd.wordsLeft -= words
	if rd.wordsLeft < 0 {
		return ErrBudgetExceeded
	}
	return nil
}

func (rd *reader) u8() (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(rd.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (rd *reader) u32() (uint32, error) {
	if err := rd.charge(1); err != nil {
		return 0, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(rd.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (rd *reader) u64() (uint64, error) {
	if err := rd.charge(2); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(rd.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (rd *reader) f64() (float64, error) {
	bits, err := rd.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// str reads a length-tagged UTF-8 string: a u32 byte length followed by
// that many bytes.
func (rd *reader) str() (string, error) {
	n, err := rd.u32()
	if err != nil {
		return "", err
	}
	words := (int64(n) + 7) / 8
	if err := rd.charge(words); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writer is the symmetric encode-side helper; it does not enforce a
// budget (only decode traversal needs to defend against hostile input).
type writer struct {
	w io.Writer
}

func newWriter(w io.Writer) *writer { return &writer{w: w} }

func (wr *writer) u32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := wr.w.Write(buf[:])
	return err
}

func (wr *writer) u64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := wr.w.Write(buf[:])
	return err
}

func (wr *writer) f64(v float64) error {
	return wr.u64(math.Float64bits(v))
}

func (wr *writer) str(s string) error {
	if err := wr.u32(uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(wr.w, s)
	return err
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("codec: %s: %w", op, err)
}
