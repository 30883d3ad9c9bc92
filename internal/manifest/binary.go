package manifest

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/wordgain/internal/hash"
)

const (
	binaryMagic = 0x464d4757 // "WGMF"
	headerSize  = 16
)

// MarshalBinary encodes the manifest.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	pb := newPayloadBuffer(make([]byte, 0, 64+len(m.Schema.Words)*8+len(m.Segments)*48))

	pb.writeUint64(m.ID)
	pb.writeUint64(uint64(m.CreatedAt.UnixNano()))
	pb.writeUint32(uint32(m.Schema.WordLength))
	pb.writeUint32(uint32(m.Schema.BatchSize))
	pb.writeUint64(m.Schema.Fingerprint)
	pb.writeUint32(uint32(len(m.Schema.Words)))
	for _, w := range m.Schema.Words {
		pb.writeString(w)
	}
	pb.writeUint32(uint32(m.NextOffset))
	pb.writeUint32(uint32(len(m.Segments)))
	for _, seg := range m.Segments {
		pb.writeUint32(uint32(seg.Start))
		pb.writeUint32(uint32(seg.End))
		pb.writeUint64(uint64(seg.Size))
		pb.writeUint32(uint32(seg.Unresolved))
		pb.writeString(seg.Path)
	}
	if pb.err != nil {
		return nil, pb.err
	}

	out := make([]byte, headerSize, headerSize+len(pb.buf))
	binary.LittleEndian.PutUint32(out[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(out[4:8], CurrentVersion)
	binary.LittleEndian.PutUint32(out[8:12], hash.CRC32C(pb.buf))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(pb.buf)))
	return append(out, pb.buf...), nil
}

// ReadBinary decodes a manifest blob.
func ReadBinary(data []byte) (*Manifest, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != binaryMagic {
		return nil, fmt.Errorf("%w: invalid magic %#x", ErrCorrupt, magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	length := binary.LittleEndian.Uint32(data[12:16])

	payload := data[headerSize:]
	if uint64(len(payload)) != uint64(length) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), length)
	}
	if !hash.Verify(payload, checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	pb := newPayloadBuffer(payload)
	m := &Manifest{Version: int(version)}

	m.ID = pb.readUint64()
	m.CreatedAt = time.Unix(0, int64(pb.readUint64()))
	m.Schema.WordLength = int(pb.readUint32())
	m.Schema.BatchSize = int(pb.readUint32())
	m.Schema.Fingerprint = pb.readUint64()

	numWords := int(pb.readUint32())
	if pb.err == nil && numWords > len(payload) {
		return nil, fmt.Errorf("%w: %d words in %d bytes", ErrCorrupt, numWords, len(payload))
	}
	m.Schema.Words = make([]string, 0, numWords)
	for i := 0; i < numWords && pb.err == nil; i++ {
		m.Schema.Words = append(m.Schema.Words, pb.readString())
	}

	m.NextOffset = int(pb.readUint32())
	numSegments := int(pb.readUint32())
	if pb.err == nil && numSegments > len(payload) {
		return nil, fmt.Errorf("%w: %d segments in %d bytes", ErrCorrupt, numSegments, len(payload))
	}
	for i := 0; i < numSegments && pb.err == nil; i++ {
		var seg SegmentInfo
		seg.Start = int(pb.readUint32())
		seg.End = int(pb.readUint32())
		seg.Size = int64(pb.readUint64())
		seg.Unresolved = int(pb.readUint32())
		seg.Path = pb.readString()
		m.Segments = append(m.Segments, seg)
	}

	if pb.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, pb.err)
	}
	return m, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) readUint64() uint64 {
	if p.err != nil {
		return 0
	}
	if p.pos+8 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readString() string {
	if p.err != nil {
		return ""
	}
	if p.pos+2 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2
	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}
