package rcon_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/asa-tools/arkmgr/internal/rcon"
)

func TestPacketRoundTrip(t *testing.T) {
	bodies := []string{
		"",
		"SaveWorld",
		"ListPlayers",
		strings.Repeat("a", 1),
		strings.Repeat("x", 4096),
	}

	for _, body := range bodies {
		var buf bytes.Buffer
		in := rcon.Packet{ID: 1, Type: rcon.PacketTypeExecCommand, Body: body}
		if _, err := in.WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo(%d-byte body): %v", len(body), err)
		}

		var out rcon.Packet
		if _, err := out.ReadFrom(&buf); err != nil {
			t.Fatalf("ReadFrom(%d-byte body): %v", len(body), err)
		}
		if out.ID != in.ID {
			t.Errorf("ID = %d, want %d", out.ID, in.ID)
		}
		if out.Type != in.Type {
			t.Errorf("Type = %d, want %d", out.Type, in.Type)
		}
		if out.Body != body {
			t.Errorf("Body mismatch for %d-byte payload", len(body))
		}
	}
}

func TestPacketWireLayout(t *testing.T) {
	var buf bytes.Buffer
	p := rcon.Packet{ID: 1, Type: rcon.PacketTypeAuth, Body: "hunter22"}
	if _, err := p.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	// size | id | type | body | 0x00 0x00
	wantSize := int32(8 + len("hunter22") + 2)
	if got := int32(binary.LittleEndian.Uint32(raw[0:4])); got != wantSize {
		t.Errorf("size field = %d, want %d", got, wantSize)
	}
	if got := int32(binary.LittleEndian.Uint32(raw[4:8])); got != 1 {
		t.Errorf("id field = %d, want 1", got)
	}
	if got := int32(binary.LittleEndian.Uint32(raw[8:12])); got != rcon.PacketTypeAuth {
		t.Errorf("type field = %d, want %d", got, rcon.PacketTypeAuth)
	}
	if !bytes.Equal(raw[12:12+8], []byte("hunter22")) {
		t.Errorf("body bytes = %q", raw[12:12+8])
	}
	if raw[len(raw)-2] != 0 || raw[len(raw)-1] != 0 {
		t.Error("frame not terminated by a NUL pair")
	}
	if len(raw) != int(wantSize)+4 {
		t.Errorf("frame length = %d, want %d", len(raw), wantSize+4)
	}
}

func TestPacketTruncatedHeader(t *testing.T) {
	var p rcon.Packet
	_, err := p.ReadFrom(bytes.NewReader([]byte{0x0a, 0, 0, 0, 1, 0}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("truncated header: err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestPacketTruncatedBody(t *testing.T) {
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:4], 20) // promises a 12-byte body
	binary.LittleEndian.PutUint32(header[4:8], 1)
	binary.LittleEndian.PutUint32(header[8:12], uint32(rcon.PacketTypeResponseValue))

	var p rcon.Packet
	_, err := p.ReadFrom(bytes.NewReader(append(header, 'h', 'i')))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("truncated body: err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestPacketSizeBounds(t *testing.T) {
	tests := []struct {
		size uint32
		want error
	}{
		{4, rcon.ErrPacketTooSmall},
		{1 << 20, rcon.ErrPacketTooLarge},
	}

	for _, tt := range tests {
		header := make([]byte, 12)
		binary.LittleEndian.PutUint32(header[0:4], tt.size)

		var p rcon.Packet
		if _, err := p.ReadFrom(bytes.NewReader(header)); !errors.Is(err, tt.want) {
			t.Errorf("size %d: err = %v, want %v", tt.size, err, tt.want)
		}
	}
}

func TestPacketZeroLengthBody(t *testing.T) {
	// size = 8 accounts only for the id and type fields: a legal empty
	// response with no body bytes and no terminator pair.
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:4], 8)
	binary.LittleEndian.PutUint32(header[4:8], 1)
	binary.LittleEndian.PutUint32(header[8:12], uint32(rcon.PacketTypeExecCommand))

	var p rcon.Packet
	if _, err := p.ReadFrom(bytes.NewReader(header)); err != nil {
		t.Fatalf("zero-length body: %v", err)
	}
	if p.Body != "" {
		t.Errorf("Body = %q, want empty", p.Body)
	}
}

func TestPacketInvalidUTF8Dropped(t *testing.T) {
	body := []byte{'o', 'k', 0xff, 0xfe, '!'}
	frame := make([]byte, 12, 12+len(body)+2)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(8+len(body)+2))
	binary.LittleEndian.PutUint32(frame[4:8], 1)
	binary.LittleEndian.PutUint32(frame[8:12], uint32(rcon.PacketTypeResponseValue))
	frame = append(frame, body...)
	frame = append(frame, 0, 0)

	var p rcon.Packet
	if _, err := p.ReadFrom(bytes.NewReader(frame)); err != nil {
		t.Fatalf("malformed text must not fail the read: %v", err)
	}
	if p.Body != "ok!" {
		t.Errorf("Body = %q, want %q", p.Body, "ok!")
	}
}

func TestPacketOversizedWrite(t *testing.T) {
	p := rcon.Packet{ID: 1, Type: rcon.PacketTypeExecCommand, Body: strings.Repeat("x", rcon.MaxBodySize+1)}
	if _, err := p.WriteTo(io.Discard); !errors.Is(err, rcon.ErrPacketTooLarge) {
		t.Fatalf("err = %v, want ErrPacketTooLarge", err)
	}
}
