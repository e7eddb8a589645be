package value

import "encoding/binary"

// Record encoding (spec §6.4): a self-describing row record is
//
//	[idx0 idx1 ... idxN | data0 ... data(N-1)]
//
// idxK is a little-endian offset of field K's payload from the start of the
// data section, width-uniform per record (1, 2 or 3 bytes, chosen by total
// size); idxN is the size of the data section (the end offset of the last
// field), not of the whole record. A field is NULL iff idx[k+1] ==
// idx[k]. Each payload is tagged with a single type byte so that Column can
// recover the original Int/Real/Str distinction without consulting external
// schema information — MakeRecord/Column must round-trip for every
// supported type (spec §8).
const (
	tagInt  = 'i'
	tagReal = 'r'
	tagStr  = 's'
)

// MakeRecord serializes vals into a self-describing record per spec §6.4.
func MakeRecord(vals []Value) []byte {
	payloads := make([][]byte, len(vals))
	for i, v := range vals {
		payloads[i] = encodeField(v)
	}

	// Offsets are measured from the start of the data section, so the
	// index array's own size does not feed back into the width decision
	// until we've picked one; 3 bytes covers any record sqlite-scale
	// engines would realistically build.
	total := 0
	for _, p := range payloads {
		total += len(p)
	}
	width := idxWidth(total, len(vals))
	idxBytes := width * (len(vals) + 1)
	out := make([]byte, idxBytes+total)

	off := 0
	for i, p := range payloads {
		putIdx(out[i*width:], width, off)
		off += len(p)
	}
	putIdx(out[len(vals)*width:], width, off)

	data := out[idxBytes:]
	off = 0
	for _, p := range payloads {
		copy(data[off:], p)
		off += len(p)
	}
	return out
}

// idxWidth picks the narrowest uniform offset width that can address the
// record's total size, per the 255 / 65535 thresholds in spec §6.4.
func idxWidth(dataSize, nFields int) int {
	maxOffset := dataSize + 3*(nFields+1) // upper-bound self-reference
	switch {
	case maxOffset <= 0xFF:
		return 1
	case maxOffset <= 0xFFFF:
		return 2
	default:
		return 3
	}
}

func putIdx(b []byte, width, v int) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
	}
}

func getIdx(b []byte, width int) int {
	switch width {
	case 1:
		return int(b[0])
	case 2:
		return int(binary.LittleEndian.Uint16(b))
	default:
		return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
	}
}

func encodeField(v Value) []byte {
	switch {
	case v.IsNull():
		return nil
	case v.IsInt():
		b := make([]byte, 9)
		b[0] = tagInt
		binary.BigEndian.PutUint64(b[1:], uint64(v.Integer()))
		return b
	case v.IsReal():
		b := make([]byte, 9)
		b[0] = tagReal
		binary.BigEndian.PutUint64(b[1:], encodeSortableReal(v.Real()))
		return b
	default:
		s := v.Text()
		b := make([]byte, 1+len(s))
		b[0] = tagStr
		copy(b[1:], s)
		return b
	}
}

func decodeField(b []byte) Value {
	if len(b) == 0 {
		return NewNull()
	}
	switch b[0] {
	case tagInt:
		return NewInt(int64(binary.BigEndian.Uint64(b[1:])))
	case tagReal:
		return NewReal(decodeSortableReal(binary.BigEndian.Uint64(b[1:])))
	default:
		return NewEphemeralText(string(b[1:]))
	}
}

// Column decodes the k-th field (0-based) of a record with nCols total
// fields.
func Column(rec []byte, nCols, k int) Value {
	if k < 0 || k >= nCols {
		return NewNull()
	}
	width := widthFor(rec, nCols)
	idxSize := width * (nCols + 1)
	start := getIdx(rec[k*width:], width)
	end := getIdx(rec[(k+1)*width:], width)
	if end <= start {
		return NewNull()
	}
	if idxSize+end > len(rec) {
		return NewNull()
	}
	return decodeField(rec[idxSize+start : idxSize+end])
}

// Columns decodes every field of a record with nCols total fields.
func Columns(rec []byte, nCols int) []Value {
	out := make([]Value, nCols)
	for i := range out {
		out[i] = Column(rec, nCols, i)
	}
	return out
}

// widthFor recovers the offset width MakeRecord chose, using the fact that
// idxN (the data-section size) must be self-consistent: try 1, then 2, then
// 3 bytes and accept the first width w for which the index array's size
// w*(nCols+1) plus idxN equals len(rec).
func widthFor(rec []byte, nCols int) int {
	for _, w := range []int{1, 2, 3} {
		idxSize := w * (nCols + 1)
		if idxSize > len(rec) {
			continue
		}
		total := getIdx(rec[nCols*w:], w)
		if idxSize+total == len(rec) {
			return w
		}
	}
	return 1
}
