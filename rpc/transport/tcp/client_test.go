package tcp_test

import (
	"bytes"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/ValentinKolb/cmdclient/rpc/client"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
	"github.com/ValentinKolb/cmdclient/rpc/transport/base"
	"github.com/ValentinKolb/cmdclient/rpc/transport/tcp"
)

// startPeer accepts one connection and reads count frames from it
func startPeer(t *testing.T, count int) (string, <-chan []base.RawFrame) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan []base.RawFrame, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var frames []base.RawFrame
		for i := 0; i < count; i++ {
			raw, err := base.ReadFrame(conn, base.DefaultLimits())
			if err != nil {
				break
			}
			frames = append(frames, raw)
		}
		out <- frames
	}()

	return ln.Addr().String(), out
}

func TestConnectorName(t *testing.T) {
	if name := tcp.NewTCPConnector().GetName(); name != "tcp" {
		t.Errorf("GetName() = %q, want tcp", name)
	}
}

func TestUpgradeConnection(t *testing.T) {
	endpoint, _ := startPeer(t, 0)

	connector := tcp.NewTCPConnector()
	conn, err := connector.Connect(endpoint)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	config := common.DefaultClientConfig()
	config.TCPConf = common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: 0}
	if err := connector.UpgradeConnection(conn, config); err != nil {
		t.Errorf("UpgradeConnection() error = %v", err)
	}

	// non tcp connections are left alone
	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()
	if err := connector.UpgradeConnection(local, config); err != nil {
		t.Errorf("UpgradeConnection(pipe) error = %v", err)
	}
}

func TestConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	endpoint := ln.Addr().String()
	ln.Close()

	config := common.DefaultClientConfig()
	config.Endpoint = endpoint

	c := client.NewCmdClient(tcp.NewTCPConnector(), "test")
	if err := c.Connect(config); err == nil {
		c.Close()
		t.Error("Connect() to a closed port should fail")
	}
}

// TestClientOverTCP sends commands through a real socket and reads them on the peer side
func TestClientOverTCP(t *testing.T) {
	endpoint, received := startPeer(t, 3)

	config := common.DefaultClientConfig()
	config.Endpoint = endpoint

	c := client.NewCmdClient(tcp.NewTCPConnector(), "test")
	if err := c.Connect(config); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	target := netip.MustParseAddr("192.168.1.20")
	commands := []common.Command{
		common.NewUserExitCommand(target),
		common.NewMessageCommand(target, "maintenance at 18:00"),
		common.NewCommand(common.CmdKPCShutDown, target, nil),
	}
	for _, cmd := range commands {
		if err := c.Send(cmd); err != nil {
			t.Fatalf("Send(%s) error = %v", cmd, err)
		}
	}

	var frames []base.RawFrame
	select {
	case frames = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("peer did not receive the frames")
	}
	if len(frames) != len(commands) {
		t.Fatalf("peer received %d frames, want %d", len(frames), len(commands))
	}

	s := serializer.NewBinarySerializer()
	for i, raw := range frames {
		got, err := raw.Command(s)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Kind() != commands[i].Kind() || got.Target() != target || got.Payload() != commands[i].Payload() {
			t.Errorf("frame %d = %s %v, want %s", i, got, got.Payload(), commands[i])
		}
	}
	if !bytes.Equal(frames[0].Payload, serializer.AbsentSentinel) {
		t.Errorf("UserExit payload = %x", frames[0].Payload)
	}
}
