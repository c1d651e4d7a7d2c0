package broker

import (
	"net"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startBroker brings up a wire.Server with a Broker attached and waits
// for it to accept connections.
func startBroker(t *testing.T) (port int, stop func()) {
	t.Helper()
	port = freePort(t)
	logger := zap.NewNop()

	server := wire.NewServer(port, logger)
	b := New(logger)
	b.Attach(server)

	done := make(chan struct{})
	go func() {
		server.Run()
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if wire.IsUp(port) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	return port, func() {
		server.Stop()
		<-done
	}
}

func sendRoundTrip(t *testing.T, port int, req wire.Message) wire.Message {
	t.Helper()
	client := wire.NewClient(port, zap.NewNop())
	resp, err := client.Send(req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	return resp
}

func TestEmptyBrokerClientsRequest(t *testing.T) {
	port, stop := startBroker(t)
	defer stop()

	req := wire.MsgClients{ClientType: wire.ClientTypeAny, QueryID: 1}.Encode()
	resp := sendRoundTrip(t, port, req)

	got := wire.DecodeMsgClients(resp)
	if got.QueryID != 1 || len(got.Clients) != 0 {
		t.Fatalf("expected empty client list, got %+v", got)
	}
}

func redFrame() vcam.VideoFrame {
	format := vcam.NewVideoFormat(vcam.FourCCFromString("RGB24"), 4, 4, []vcam.Fraction{{Num: 30, Den: 1}})
	frame := vcam.NewVideoFrame(format)
	frame.Fill(0xFF)
	return frame
}

func TestSingleProducerSingleConsumer(t *testing.T) {
	port, stop := startBroker(t)
	defer stop()

	// The producer's connection must stay open for the listens below to
	// observe it: a one-shot round trip closes right after STATUS(0),
	// which evicts the pid and races the assertions that follow.
	producerConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer producerConn.Close()

	broadcast := wire.MsgBroadcast{Device: "AkVCamVideoDevice0", PID: 1001, Frame: redFrame(), QueryID: 7}.Encode()
	if err := wire.WriteMessage(producerConn, broadcast); err != nil {
		t.Fatalf("write broadcast: %v", err)
	}
	statusResp, err := wire.ReadMessage(producerConn)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	status := wire.DecodeMsgStatus(statusResp)
	if status.Status != 0 || status.QueryID != 7 {
		t.Fatalf("expected STATUS(0), got %+v", status)
	}

	listen := wire.MsgListen{Device: "AkVCamVideoDevice0", PID: 1002, QueryID: 8}.Encode()
	frameResp := sendRoundTrip(t, port, listen)
	frameReady := wire.DecodeMsgFrameReady(frameResp)
	if !frameReady.IsActive || frameReady.QueryID != 8 || frameReady.Frame.Empty() {
		t.Fatalf("expected an active frame, got %+v", frameReady)
	}

	start := time.Now()
	listen2 := wire.MsgListen{Device: "AkVCamVideoDevice0", PID: 1003, QueryID: 9}.Encode()
	frameResp2 := sendRoundTrip(t, port, listen2)
	elapsed := time.Since(start)

	frameReady2 := wire.DecodeMsgFrameReady(frameResp2)
	if !frameReady2.IsActive || frameReady2.QueryID != 9 || !frameReady2.Frame.Empty() {
		t.Fatalf("expected an empty frame while the producer is quiet, got %+v", frameReady2)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("listen took too long: %v", elapsed)
	}
}

func TestConflictingProducers(t *testing.T) {
	port, stop := startBroker(t)
	defer stop()

	// The first producer keeps its connection open so it still holds the
	// slot when the second one arrives; a one-shot Send would close it
	// and evict the first producer.
	producerConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer producerConn.Close()

	first := wire.MsgBroadcast{Device: "AkVCamVideoDevice0", PID: 1001, Frame: redFrame(), QueryID: 1}.Encode()
	if err := wire.WriteMessage(producerConn, first); err != nil {
		t.Fatalf("first broadcast: %v", err)
	}
	resp, err := wire.ReadMessage(producerConn)
	if err != nil {
		t.Fatalf("first broadcast: %v", err)
	}
	if wire.DecodeMsgStatus(resp).Status != 0 {
		t.Fatalf("expected the first producer to win the slot")
	}

	second := wire.MsgBroadcast{Device: "AkVCamVideoDevice0", PID: 2002, Frame: redFrame(), QueryID: 2}.Encode()
	resp2 := sendRoundTrip(t, port, second)
	status := wire.DecodeMsgStatus(resp2)
	if status.Status != -1 || status.QueryID != 2 {
		t.Fatalf("expected STATUS(-1) for a conflicting producer, got %+v", status)
	}
}

func TestProducerDisconnectMarksInactive(t *testing.T) {
	port, stop := startBroker(t)
	defer stop()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	broadcast := wire.MsgBroadcast{Device: "AkVCamVideoDevice0", PID: 1001, Frame: redFrame(), QueryID: 1}.Encode()
	if err := wire.WriteMessage(conn, broadcast); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wire.ReadMessage(conn); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close()

	// Give the server's accept/close goroutine time to fire
	// ConnectionClosed before asserting eviction.
	time.Sleep(100 * time.Millisecond)

	clientsReq := wire.MsgClients{ClientType: wire.ClientTypeVCams, QueryID: 5}.Encode()
	resp := sendRoundTrip(t, port, clientsReq)
	clients := wire.DecodeMsgClients(resp)
	for _, pid := range clients.Clients {
		if pid == 1001 {
			t.Fatalf("expected pid 1001 to be evicted after disconnect")
		}
	}

	listen := wire.MsgListen{Device: "AkVCamVideoDevice0", PID: 1002, QueryID: 6}.Encode()
	frameResp := sendRoundTrip(t, port, listen)
	frameReady := wire.DecodeMsgFrameReady(frameResp)
	if frameReady.IsActive {
		t.Fatalf("expected isActive=false once the broadcaster has disconnected")
	}
}

