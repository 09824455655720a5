package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"authweb", "account.login", "authweb.account.login"},
		{"", " api/users/me ", "api_users_me"},
		{"authweb", "foo..bar.", "authweb.foo.bar"},
		{"authweb", "a:b|c", "authweb.a_b_c"},
		{"authweb", "  ", ""},
	}
	for _, tt := range tests {
		if got := metricName(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("metricName(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestEncodeTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " authweb "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	got := encodeTags(global, local)
	want := "|#env:stage,result:success,service:authweb"
	if got != want {
		t.Fatalf("encodeTags mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := encodeTags(nil, nil); got != "" {
		t.Fatalf("encodeTags(nil, nil) = %q, want empty string", got)
	}
}

func TestClientSendsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     ".authweb.",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	client.Count("account.login", 1, map[string]string{"result": "success"})
	client.Timing("authapi.request", 1500*time.Microsecond, nil)

	want := []string{
		"authweb.account.login:1|c|#env:test,result:success",
		"authweb.authapi.request:1.5|ms|#env:test",
	}
	buf := make([]byte, 512)
	for _, w := range want {
		if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("deadline: %v", err)
		}
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got := string(buf[:n]); got != w {
			t.Fatalf("datagram = %q, want %q", got, w)
		}
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}
	// Dropped silently once closed.
	client.Count("ignored", 1, nil)

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("ignored", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	tags := map[string]string{"result": "success"}
	r.Count("account.login", 1, tags)
	tags["result"] = "mutated"
	r.Timing("account.login", 2*time.Millisecond, nil)

	counts := r.Named("c", "account.login")
	if len(counts) != 1 || counts[0].Tags["result"] != "success" {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if timings := r.Named("ms", "account.login"); len(timings) != 1 || timings[0].Value != 2 {
		t.Fatalf("unexpected timings: %+v", timings)
	}
}
