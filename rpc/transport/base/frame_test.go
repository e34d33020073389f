package base

import (
	"bytes"
	"errors"
	"io"
	"net/netip"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
)

var localhost = netip.MustParseAddr("127.0.0.1")

// bufferStream is an in-memory stream that records every call
type bufferStream struct {
	buf     bytes.Buffer
	calls   []string
	writes  [][]byte
	failOp  string // "write" or "flush"
	failAt  int    // 1-based index of the failing call of failOp
	failErr error
	short   bool // report one byte less than written
}

func (s *bufferStream) Write(p []byte) (int, error) {
	s.calls = append(s.calls, "write")
	if s.failOp == "write" && s.count("write") == s.failAt {
		return 0, s.failErr
	}
	s.writes = append(s.writes, append([]byte(nil), p...))
	n, _ := s.buf.Write(p)
	if s.short && n > 0 {
		return n - 1, nil
	}
	return n, nil
}

func (s *bufferStream) Flush() error {
	s.calls = append(s.calls, "flush")
	if s.failOp == "flush" && s.count("flush") == s.failAt {
		return s.failErr
	}
	return nil
}

func (s *bufferStream) count(op string) int {
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

// TestEncodeUserExit tests the reference frame of a UserExit without payload
func TestEncodeUserExit(t *testing.T) {
	want := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
		0x31, 0x32, 0x37, 0x2E, 0x30, 0x2E, 0x30, 0x2E, 0x31,
		0x02, 0x00, 0x00, 0x00,
		0x0A, 0x00,
	}

	frame, err := EncodeFrame(common.NewUserExitCommand(localhost), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	if frame.Len() != 23 {
		t.Errorf("Len() = %d, want 23", frame.Len())
	}
	if !bytes.Equal(frame.Bytes(), want) {
		t.Errorf("Bytes() = %x, want %x", frame.Bytes(), want)
	}

	fields := [][]byte{
		want[0:4],
		want[4:8],
		want[8:17],
		want[17:21],
		want[21:23],
	}
	if !reflect.DeepEqual(frame.Fields(), fields) {
		t.Errorf("Fields() = %x, want %x", frame.Fields(), fields)
	}
	if !bytes.Equal(frame.Field(common.FieldAddress), []byte("127.0.0.1")) {
		t.Errorf("Field(address) = %q", frame.Field(common.FieldAddress))
	}
	if frame.Field(common.FrameField(7)) != nil {
		t.Error("Field() out of range should return nil")
	}
}

// TestEncodeKindCodes tests that the kind code field follows the code table
func TestEncodeKindCodes(t *testing.T) {
	s := serializer.NewBinarySerializer()
	for i, kind := range common.AllCommandKinds() {
		frame, err := EncodeFrame(common.NewCommand(kind, localhost, nil), s)
		if err != nil {
			t.Fatalf("EncodeFrame(%s) error = %v", kind, err)
		}
		want := []byte{byte(i), 0, 0, 0}
		if !bytes.Equal(frame.Field(common.FieldKind), want) {
			t.Errorf("%s: kind field = %x, want %x", kind, frame.Field(common.FieldKind), want)
		}
	}
}

// TestEncodeIPv6 tests the textual form of an IPv6 target
func TestEncodeIPv6(t *testing.T) {
	target := netip.MustParseAddr("fe80::1")
	frame, err := EncodeFrame(common.NewUserExitCommand(target), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	if !bytes.Equal(frame.Field(common.FieldAddressLength), []byte{7, 0, 0, 0}) {
		t.Errorf("address length = %x", frame.Field(common.FieldAddressLength))
	}
	if string(frame.Field(common.FieldAddress)) != "fe80::1" {
		t.Errorf("address = %q", frame.Field(common.FieldAddress))
	}
}

// TestEncodeDeterministic tests that equal commands always encode to equal bytes
func TestEncodeDeterministic(t *testing.T) {
	for _, name := range serializer.Names() {
		s, err := serializer.Get(name)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", name, err)
		}
		t.Run(name, func(t *testing.T) {
			cmd := common.NewCommand(common.CmdKSendClientList, localhost, []string{"alice", "bob", "carol"})

			first, err := EncodeFrame(cmd, s)
			if err != nil {
				t.Fatalf("EncodeFrame() error = %v", err)
			}
			for i := 0; i < 10; i++ {
				next, err := EncodeFrame(cmd, s)
				if err != nil {
					t.Fatalf("EncodeFrame() error = %v", err)
				}
				if !bytes.Equal(first.Bytes(), next.Bytes()) {
					t.Fatalf("run %d: %x != %x", i, next.Bytes(), first.Bytes())
				}
			}
		})
	}
}

// TestEncodeLengthFields tests that both length fields match the bytes that follow
func TestEncodeLengthFields(t *testing.T) {
	text := strings.Repeat("x", 300)
	frame, err := EncodeFrame(common.NewMessageCommand(netip.MustParseAddr("192.168.100.200"), text), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	addrLen := frame.Field(common.FieldAddressLength)
	if int(addrLen[0]) != len(frame.Field(common.FieldAddress)) {
		t.Errorf("address length %d, address %d bytes", addrLen[0], len(frame.Field(common.FieldAddress)))
	}

	payloadLen := frame.Field(common.FieldPayloadLength)
	n := int(payloadLen[0]) | int(payloadLen[1])<<8 | int(payloadLen[2])<<16 | int(payloadLen[3])<<24
	if n != len(frame.Field(common.FieldPayload)) {
		t.Errorf("payload length %d, payload %d bytes", n, len(frame.Field(common.FieldPayload)))
	}
	// tag + blob length + text
	if n != 1+4+len(text) {
		t.Errorf("payload length = %d, want %d", n, 1+4+len(text))
	}
}

type brokenSerializer struct{}

func (brokenSerializer) Serialize(any) ([]byte, error)   { return nil, errors.New("broken") }
func (brokenSerializer) Deserialize([]byte) (any, error) { return nil, errors.New("broken") }
func (brokenSerializer) Name() string                    { return "broken" }

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmd     common.Command
		s       serializer.IPayloadSerializer
		field   common.FrameField
		wantErr error
	}{
		{
			name:    "Zero kind",
			cmd:     common.NewCommand(common.CommandKind(0), localhost, nil),
			s:       serializer.NewBinarySerializer(),
			field:   common.FieldKind,
			wantErr: common.ErrUnknownCommandKind,
		},
		{
			name:    "Out of range kind",
			cmd:     common.NewCommand(common.CommandKind(200), localhost, nil),
			s:       serializer.NewBinarySerializer(),
			field:   common.FieldKind,
			wantErr: common.ErrUnknownCommandKind,
		},
		{
			name:    "Zero address",
			cmd:     common.NewCommand(common.CmdKPCLock, netip.Addr{}, nil),
			s:       serializer.NewBinarySerializer(),
			field:   common.FieldAddress,
			wantErr: common.ErrInvalidAddress,
		},
		{
			name:  "No serializer",
			cmd:   common.NewUserExitCommand(localhost),
			s:     nil,
			field: common.FieldPayload,
		},
		{
			name:  "Serializer failure",
			cmd:   common.NewUserExitCommand(localhost),
			s:     brokenSerializer{},
			field: common.FieldPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeFrame(tt.cmd, tt.s)

			var encErr *common.EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected *common.EncodingError, got %v", err)
			}
			if encErr.Field != tt.field {
				t.Errorf("field = %s, want %s", encErr.Field, tt.field)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

// TestWriteFrameCadence tests one write and one flush per field
func TestWriteFrameCadence(t *testing.T) {
	frame, err := EncodeFrame(common.NewUserExitCommand(localhost), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	stream := &bufferStream{}
	if err := WriteFrame(stream, frame); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	wantCalls := []string{"write", "flush", "write", "flush", "write", "flush", "write", "flush", "write", "flush"}
	if !reflect.DeepEqual(stream.calls, wantCalls) {
		t.Errorf("calls = %v, want %v", stream.calls, wantCalls)
	}
	if !reflect.DeepEqual(stream.writes, frame.Fields()) {
		t.Errorf("writes = %x, want %x", stream.writes, frame.Fields())
	}
	if !bytes.Equal(stream.buf.Bytes(), frame.Bytes()) {
		t.Errorf("stream = %x, want %x", stream.buf.Bytes(), frame.Bytes())
	}
}

// TestWriteFrameStopsOnError tests that the first failure ends the frame
func TestWriteFrameStopsOnError(t *testing.T) {
	frame, err := EncodeFrame(common.NewMessageCommand(localhost, "hello"), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	ioErr := errors.New("connection reset")

	for _, op := range []string{"write", "flush"} {
		for at := 1; at <= 5; at++ {
			stream := &bufferStream{failOp: op, failAt: at, failErr: ioErr}
			err := WriteFrame(stream, frame)

			var streamErr *common.StreamIOError
			if !errors.As(err, &streamErr) {
				t.Fatalf("%s #%d: expected *common.StreamIOError, got %v", op, at, err)
			}
			if !errors.Is(err, ioErr) {
				t.Errorf("%s #%d: error does not unwrap to the stream error", op, at)
			}
			if streamErr.Op != op || streamErr.Field != common.FrameField(at-1) {
				t.Errorf("%s #%d: got %s %s", op, at, streamErr.Op, streamErr.Field)
			}

			wantCalls := 2*(at-1) + 1
			if op == "flush" {
				wantCalls++
			}
			if len(stream.calls) != wantCalls {
				t.Errorf("%s #%d: %d calls, want %d", op, at, len(stream.calls), wantCalls)
			}
		}
	}
}

func TestWriteFrameShortWrite(t *testing.T) {
	frame, err := EncodeFrame(common.NewUserExitCommand(localhost), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	err = WriteFrame(&bufferStream{short: true}, frame)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("WriteFrame() error = %v, want io.ErrShortWrite", err)
	}
}

// TestReadFrameRoundTrip tests that ReadFrame recovers what EncodeFrame produced
func TestReadFrameRoundTrip(t *testing.T) {
	s := serializer.NewBinarySerializer()
	commands := []common.Command{
		common.NewUserExitCommand(localhost),
		common.NewMessageCommand(netip.MustParseAddr("10.1.2.3"), "shutdown in 5 minutes"),
		common.NewLoginInformCommand(netip.MustParseAddr("::1"), "alice"),
		common.NewCommand(common.CmdKSendClientList, localhost, []string{"a", "b"}),
	}

	var stream bytes.Buffer
	for _, cmd := range commands {
		frame, err := EncodeFrame(cmd, s)
		if err != nil {
			t.Fatalf("EncodeFrame(%s) error = %v", cmd, err)
		}
		stream.Write(frame.Bytes())
	}

	for _, want := range commands {
		raw, err := ReadFrame(&stream, DefaultLimits())
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		got, err := raw.Command(s)
		if err != nil {
			t.Fatalf("Command() error = %v", err)
		}
		if got.Kind() != want.Kind() || got.Target() != want.Target() || !reflect.DeepEqual(got.Payload(), want.Payload()) {
			t.Errorf("got %s %v, want %s %v", got, got.Payload(), want, want.Payload())
		}
	}

	if _, err := ReadFrame(&stream, DefaultLimits()); err != io.EOF {
		t.Errorf("ReadFrame() at end = %v, want io.EOF", err)
	}
}

func TestReadFrameErrors(t *testing.T) {
	frame, err := EncodeFrame(common.NewMessageCommand(localhost, "hello"), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	full := frame.Bytes()

	tests := []struct {
		name    string
		data    []byte
		limits  Limits
		wantErr error
	}{
		{"Truncated kind", full[:2], DefaultLimits(), common.ErrShortFrame},
		{"Truncated address", full[:10], DefaultLimits(), common.ErrShortFrame},
		{"Missing payload length", full[:17], DefaultLimits(), common.ErrShortFrame},
		{"Truncated payload", full[:len(full)-1], DefaultLimits(), common.ErrShortFrame},
		{"Address too large", full, Limits{MaxAddressBytes: 4, MaxPayloadBytes: 1024}, common.ErrFrameTooLarge},
		{"Payload too large", full, Limits{MaxAddressBytes: 64, MaxPayloadBytes: 4}, common.ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.data), tt.limits)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRawFrameInvalid(t *testing.T) {
	s := serializer.NewBinarySerializer()

	if _, err := (RawFrame{Code: 99, Address: "127.0.0.1", Payload: serializer.AbsentSentinel}).Command(s); !errors.Is(err, common.ErrUnknownCommandKind) {
		t.Errorf("unknown code: error = %v", err)
	}
	if _, err := (RawFrame{Code: 0, Address: "not-an-ip", Payload: serializer.AbsentSentinel}).Command(s); !errors.Is(err, common.ErrInvalidAddress) {
		t.Errorf("bad address: error = %v", err)
	}
	if _, err := (RawFrame{Code: 0, Address: "127.0.0.1", Payload: []byte{0xFF, 0x00}}).Command(s); err == nil {
		t.Error("bad payload: expected error")
	}
}

func BenchmarkEncodeFrame(b *testing.B) {
	s := serializer.NewBinarySerializer()
	cmd := common.NewMessageCommand(localhost, strings.Repeat("m", 128))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeFrame(cmd, s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteFrame(b *testing.B) {
	frame, err := EncodeFrame(common.NewUserExitCommand(localhost), serializer.NewBinarySerializer())
	if err != nil {
		b.Fatal(err)
	}
	stream := &discardStream{}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := WriteFrame(stream, frame); err != nil {
			b.Fatal(err)
		}
	}
}

type discardStream struct{}

func (discardStream) Write(p []byte) (int, error) { return len(p), nil }
func (discardStream) Flush() error                { return nil }
