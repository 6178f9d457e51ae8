package adapter

import "testing"

func TestStatusTrackerTransitions(t *testing.T) {
	tr := NewStatusTracker()
	if tr.Status() != StatusConnecting {
		t.Fatalf("initial status = %v, want connecting", tr.Status())
	}

	fired := 0
	tr.OnConnect(func() { fired++ })

	tr.SetStatus(StatusConnected)
	if fired != 1 {
		t.Fatalf("connect fired %d times, want 1", fired)
	}

	// staying connected is not a transition
	tr.SetStatus(StatusConnected)
	if fired != 1 {
		t.Fatalf("repeated connected status fired callbacks: %d", fired)
	}

	tr.SetStatus(StatusDisconnected)
	if fired != 1 {
		t.Fatalf("disconnect fired connect callbacks: %d", fired)
	}

	tr.SetStatus(StatusConnected)
	if fired != 2 {
		t.Fatalf("reconnect fired %d times, want 2", fired)
	}
}

func TestConnectionStatusString(t *testing.T) {
	cases := map[ConnectionStatus]string{
		StatusConnecting:    "connecting",
		StatusConnected:     "connected",
		StatusDisconnected:  "disconnected",
		ConnectionStatus(9): "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
