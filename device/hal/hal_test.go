package hal

import (
	"bytes"
	"testing"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		ep     Endpoint
		number uint8
		in     bool
		str    string
	}{
		{EPOut0, 0, false, "EP0 OUT"},
		{EPIn0, 0, true, "EP0 IN"},
		{Endpoint(0x81), 1, true, "EP1 IN"},
		{Endpoint(0x02), 2, false, "EP2 OUT"},
		{Endpoint(0x8F), 15, true, "EP15 IN"},
	}
	for _, tt := range tests {
		if tt.ep.Number() != tt.number {
			t.Errorf("Endpoint(0x%02X).Number() = %d, want %d", uint8(tt.ep), tt.ep.Number(), tt.number)
		}
		if tt.ep.IsIn() != tt.in {
			t.Errorf("Endpoint(0x%02X).IsIn() = %v, want %v", uint8(tt.ep), tt.ep.IsIn(), tt.in)
		}
		if got := tt.ep.String(); got != tt.str {
			t.Errorf("Endpoint(0x%02X).String() = %q, want %q", uint8(tt.ep), got, tt.str)
		}
	}
}

func TestSetupPacketCodec(t *testing.T) {
	sp := SetupPacket{
		RequestType: 0x80,
		Request:     0x06,
		Value:       0x0200,
		Index:       0x0409,
		Length:      255,
	}
	var buf [SetupPacketSize]byte
	if n := sp.MarshalTo(buf[:]); n != SetupPacketSize {
		t.Fatalf("MarshalTo() = %d, want %d", n, SetupPacketSize)
	}
	want := []byte{0x80, 0x06, 0x00, 0x02, 0x09, 0x04, 0xFF, 0x00}
	if !bytes.Equal(buf[:], want) {
		t.Fatalf("MarshalTo() = % X, want % X", buf[:], want)
	}

	var parsed SetupPacket
	if !ParseSetupPacket(buf[:], &parsed) {
		t.Fatal("ParseSetupPacket() = false")
	}
	if parsed != sp {
		t.Fatalf("round trip = %+v, want %+v", parsed, sp)
	}

	if ParseSetupPacket(buf[:SetupPacketSize-1], &parsed) {
		t.Fatal("ParseSetupPacket() = true for short input")
	}
	if n := sp.MarshalTo(buf[:SetupPacketSize-1]); n != 0 {
		t.Fatalf("MarshalTo() with short buffer = %d, want 0", n)
	}
}

func TestSetupPacketDataDirection(t *testing.T) {
	in := SetupPacket{RequestType: 0x80}
	if in.DataDirection() != EPIn0 {
		t.Errorf("DataDirection() = %v, want %v", in.DataDirection(), EPIn0)
	}
	out := SetupPacket{RequestType: 0x21}
	if out.DataDirection() != EPOut0 {
		t.Errorf("DataDirection() = %v, want %v", out.DataDirection(), EPOut0)
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		t    EventType
		want string
	}{
		{EventReset, "reset"},
		{EventSuspend, "suspend"},
		{EventResume, "resume"},
		{EventSetup, "setup"},
		{EventTransferComplete, "transfer complete"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
