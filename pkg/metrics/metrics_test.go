package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBroadcast(t *testing.T) {
	BroadcastRequestsTotal.Reset()

	RecordBroadcast("AkVCamVideoDevice0", "ok")
	RecordBroadcast("AkVCamVideoDevice0", "rejected")
	RecordBroadcast("AkVCamVideoDevice0", "ok")

	if got := testutil.ToFloat64(BroadcastRequestsTotal.WithLabelValues("AkVCamVideoDevice0", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(BroadcastRequestsTotal.WithLabelValues("AkVCamVideoDevice0", "rejected")); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
}

func TestRecordListen(t *testing.T) {
	ListenRequestsTotal.Reset()

	RecordListen("AkVCamVideoDevice0", 0.05)
	RecordListen("AkVCamVideoDevice0", 0.1)

	if got := testutil.ToFloat64(ListenRequestsTotal.WithLabelValues("AkVCamVideoDevice0")); got != 2 {
		t.Errorf("listen count = %v, want 2", got)
	}
}

func TestRecordDecodeFailure(t *testing.T) {
	DecodeFailuresTotal.Reset()

	RecordDecodeFailure("frame")
	RecordDecodeFailure("frame")

	if got := testutil.ToFloat64(DecodeFailuresTotal.WithLabelValues("frame")); got != 2 {
		t.Errorf("decode failure count = %v, want 2", got)
	}
}

func TestRecordNotifySubscription(t *testing.T) {
	NotifySubscriptionsTotal.Reset()

	RecordNotifySubscription("devices", "changed")
	RecordNotifySubscription("devices", "timeout")

	if got := testutil.ToFloat64(NotifySubscriptionsTotal.WithLabelValues("devices", "changed")); got != 1 {
		t.Errorf("changed count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(NotifySubscriptionsTotal.WithLabelValues("devices", "timeout")); got != 1 {
		t.Errorf("timeout count = %v, want 1", got)
	}
}

func TestSetActiveDevicesAndConnectedPeers(t *testing.T) {
	SetActiveDevices(3)
	if got := testutil.ToFloat64(ActiveDevices); got != 3 {
		t.Errorf("ActiveDevices = %v, want 3", got)
	}

	SetConnectedPeers(5)
	if got := testutil.ToFloat64(ConnectedPeers); got != 5 {
		t.Errorf("ConnectedPeers = %v, want 5", got)
	}
}
