package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/tliron/commonlog"
)

var codecLog = commonlog.GetLogger("slime.codec")

// Binary image layout:
//
//	magic    "SLBT" (4 bytes)
//	version  u16 big-endian
//	codeLen  u32 big-endian, followed by codeLen code bytes
//	strings   pool: count u16, entries {len u16, bytes}
//	numbers   pool: count u16, entries are 8-byte big-endian IEEE-754
//	constants pool: count u16, entries {len u16, bytes}
//	functions pool: count u16, entries {len u16, bytes}
const (
	FormatMagic   = "SLBT"
	FormatVersion = uint16(0x0100)
)

// Encode serializes a program to its binary image. Encode does not validate
// the code stream; a program with dangling jumps encodes faithfully.
func Encode(p *Program) []byte {
	buf := make([]byte, 0, 64+len(p.Code))

	buf = append(buf, FormatMagic...)
	buf = binary.BigEndian.AppendUint16(buf, FormatVersion)

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Code)))
	buf = append(buf, p.Code...)

	buf = appendStringPool(buf, p.Strings)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(p.Numbers)))
	for _, n := range p.Numbers {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(n))
	}

	buf = appendStringPool(buf, p.Constants)
	buf = appendStringPool(buf, p.Functions)

	return buf
}

func appendStringPool(buf []byte, pool []string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(pool)))
	for _, s := range pool {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// Decode parses a binary image back into a program. Bad magic, an
// unsupported version, or truncation fail with a FormatError.
func Decode(data []byte) (*Program, error) {
	r := &reader{data: data}

	magic, err := r.bytes(4, "magic")
	if err != nil {
		return nil, err
	}
	if string(magic) != FormatMagic {
		return nil, formatErrorf("bad magic %q", string(magic))
	}

	version, err := r.u16("version")
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, formatErrorf("unsupported version 0x%04X", version)
	}

	codeLen, err := r.u32("code length")
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen), "code")
	if err != nil {
		return nil, err
	}

	p := NewProgram()
	p.Code = append(p.Code, code...)

	if p.Strings, err = r.stringPool("string"); err != nil {
		return nil, err
	}

	numCount, err := r.u16("number pool count")
	if err != nil {
		return nil, err
	}
	p.Numbers = make([]float64, 0, numCount)
	for i := 0; i < int(numCount); i++ {
		bits, err := r.u64("number pool entry")
		if err != nil {
			return nil, err
		}
		p.Numbers = append(p.Numbers, math.Float64frombits(bits))
	}

	if p.Constants, err = r.stringPool("constant"); err != nil {
		return nil, err
	}
	if p.Functions, err = r.stringPool("function"); err != nil {
		return nil, err
	}

	// Rebuild lazily on the next intern.
	p.strIndex = nil
	p.numIndex = nil
	p.constIndex = nil
	p.funcIndex = nil

	return p, nil
}

// Save encodes a program and writes it to path.
func Save(p *Program, path string) error {
	data := Encode(p)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bytecode to %s: %w", path, err)
	}
	codecLog.Infof("wrote %d bytes to %s", len(data), path)
	return nil
}

// Load reads and decodes a program from path.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bytecode from %s: %w", path, err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, err
	}
	codecLog.Infof("loaded %d code bytes from %s", len(p.Code), path)
	return p, nil
}

// reader walks a binary image, failing with a FormatError on truncation.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(n int, what string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, formatErrorf("unexpected end of bytecode reading %s", what)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u16(what string) (uint16, error) {
	b, err := r.bytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64(what string) (uint64, error) {
	b, err := r.bytes(8, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) stringPool(name string) ([]string, error) {
	count, err := r.u16(name + " pool count")
	if err != nil {
		return nil, err
	}
	pool := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		strLen, err := r.u16(name + " pool entry length")
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(strLen), name+" pool entry")
		if err != nil {
			return nil, err
		}
		pool = append(pool, string(b))
	}
	return pool, nil
}
