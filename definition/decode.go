// Package definition decodes config records out of archive files.
//
// Every record is a sequence of opcode-tagged fields terminated by opcode 0.
// A record type is described by a Table mapping each opcode it understands to
// the Field that reads that opcode's payload; Decode runs the shared loop.
// Unknown opcodes are errors, never skipped.
package definition

import (
	"fmt"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

// ErrUnknownOpcode matches every *OpcodeError.
var ErrUnknownOpcode = cachetype.ErrUnknownOpcode

// Field reads one opcode's payload from r and applies it to target.
type Field[T any] func(r *stream.Reader, target *T) error

// Table maps opcodes to fields. Opcode 0 is reserved as the terminator.
type Table[T any] map[byte]Field[T]

// OpcodeError reports an opcode the record type does not define.
type OpcodeError struct {
	Opcode int
	Offset int
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("%v %d at offset %d", cachetype.ErrUnknownOpcode, e.Opcode, e.Offset)
}

// Unwrap makes OpcodeError match ErrUnknownOpcode.
func (e *OpcodeError) Unwrap() error { return cachetype.ErrUnknownOpcode }

// Decode reads fields from r into target until opcode 0. Bytes after the
// terminator are left unread.
func Decode[T any](r *stream.Reader, table Table[T], target *T) error {
	for {
		at := r.Offset()
		op, err := r.Uint8()
		if err != nil {
			return cachetype.Locate(fmt.Errorf("missing terminator: %w", err), -1, -1, -1, at)
		}
		if op == 0 {
			return nil
		}
		field, ok := table[byte(op)]
		if !ok {
			return cachetype.Locate(&OpcodeError{Opcode: op, Offset: at}, -1, -1, -1, at)
		}
		if err := field(r, target); err != nil {
			return cachetype.Locate(fmt.Errorf("opcode %d: %w", op, err), -1, -1, -1, at)
		}
	}
}

// Int adapts an integer read into a Field.
func Int[T any](read func(*stream.Reader) (int, error), set func(*T, int)) Field[T] {
	return func(r *stream.Reader, target *T) error {
		v, err := read(r)
		if err != nil {
			return err
		}
		set(target, v)
		return nil
	}
}

// String adapts a string read into a Field.
func String[T any](read func(*stream.Reader) (string, error), set func(*T, string)) Field[T] {
	return func(r *stream.Reader, target *T) error {
		v, err := read(r)
		if err != nil {
			return err
		}
		set(target, v)
		return nil
	}
}

// load decodes b as a record of file id with table.
func load[T any](id int, b []byte, table Table[T], target *T) error {
	if err := Decode(stream.NewReader(b), table, target); err != nil {
		return cachetype.Relocate(err, -1, -1, id)
	}
	return nil
}

// Stream readers shared by the record tables.
var (
	u8        = (*stream.Reader).Uint8
	u16       = (*stream.Reader).Uint16
	i16       = (*stream.Reader).Int16
	u24       = (*stream.Reader).Uint24
	i32       = (*stream.Reader).Int32
	bigSmart2 = (*stream.Reader).BigSmart2
	cstring   = (*stream.Reader).CString
	cstring2  = (*stream.Reader).CString2
)
