package rcon

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"
)

// Packet type values defined by the Source remote console protocol. The
// server reuses the value 2 for both exec requests and auth responses, so
// the receive path never branches on type to extract a body.
const (
	PacketTypeAuth          int32 = 3
	PacketTypeAuthResponse  int32 = 2
	PacketTypeExecCommand   int32 = 2
	PacketTypeResponseValue int32 = 0
)

// wrapperSize is the number of bytes the size field accounts for besides
// the body: the packet ID and the packet type.
const wrapperSize = 8

// MaxBodySize bounds the body of a single frame in either direction.
// Larger server responses are split across frames by real servers; this
// client treats an oversized size field as a framing error.
const MaxBodySize = 4096

var (
	ErrPacketTooSmall = errors.New("rcon: packet size below minimum")
	ErrPacketTooLarge = errors.New("rcon: packet size above maximum")
)

// Packet is one protocol frame, request or response. On the wire it is a
// little-endian header of three int32s (size, ID, type) followed by the
// body and a NUL pair; size counts everything after itself.
type Packet struct {
	// ID correlates requests with responses. This client sends a constant
	// ID because it never has more than one request in flight; the one
	// meaningful inbound value is -1, which signals a rejected password.
	ID int32

	// Type is one of the PacketType constants.
	Type int32

	// Body is the password, command or response text. May be empty.
	Body string
}

// WriteTo frames the packet and writes it to w as a single contiguous
// write, so no partial frame is ever exposed on a per-call basis.
// net.Conn implementations complete or fail the whole buffer.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	if len(p.Body) > MaxBodySize {
		return 0, ErrPacketTooLarge
	}

	size := int32(wrapperSize + len(p.Body) + 2)
	buf := make([]byte, 0, size+4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.ID))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Type))
	buf = append(buf, p.Body...)
	buf = append(buf, 0, 0)

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads exactly one frame from r into p. A short header or body
// read fails the frame rather than returning partial contents. Body bytes
// that are not valid UTF-8 are dropped and trailing NULs are stripped, so
// a zero-length body decodes to the empty string.
func (p *Packet) ReadFrom(r io.Reader) (int64, error) {
	header := make([]byte, 12)
	hn, err := io.ReadFull(r, header)
	if err != nil {
		return int64(hn), err
	}

	size := int32(binary.LittleEndian.Uint32(header[0:4]))
	p.ID = int32(binary.LittleEndian.Uint32(header[4:8]))
	p.Type = int32(binary.LittleEndian.Uint32(header[8:12]))

	if size < wrapperSize {
		return int64(hn), ErrPacketTooSmall
	}
	if size > wrapperSize+MaxBodySize+2 {
		return int64(hn), ErrPacketTooLarge
	}

	body := make([]byte, size-wrapperSize)
	bn, err := io.ReadFull(r, body)
	if err != nil {
		return int64(hn + bn), err
	}

	p.Body = strings.TrimRight(strings.ToValidUTF8(string(body), ""), "\x00")
	return int64(hn + bn), nil
}
