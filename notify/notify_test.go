package notify

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/mark3labs/fetcch-go"
)

func TestFeedUpdateInPlace(t *testing.T) {
	feed := NewFeed()

	h := feed.Loading("Checking payment request")
	feed.Success("Successfully request 0.00000196 ETH")
	feed.Update(h, fetcch.NotificationSuccess, "Successfully resolved payment request - 0xabc")

	items := feed.List()
	if len(items) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(items))
	}
	if items[0].Handle != h {
		t.Errorf("first entry handle = %s, want %s", items[0].Handle, h)
	}
	if items[0].Kind != fetcch.NotificationSuccess || !strings.Contains(items[0].Message, "0xabc") {
		t.Errorf("updated entry = %+v", items[0])
	}
	if _, err := uuid.Parse(string(h)); err != nil {
		t.Errorf("handle %q is not a UUID: %v", h, err)
	}
}

func TestFeedUpdateUnknownHandle(t *testing.T) {
	feed := NewFeed()
	feed.Update("missing", fetcch.NotificationError, "late")

	n, ok := feed.Get("missing")
	if !ok || n.Kind != fetcch.NotificationError {
		t.Errorf("Get(missing) = %+v, %v", n, ok)
	}
}

func TestFeedLimit(t *testing.T) {
	feed := NewFeed()
	feed.Limit = 3
	for i := 0; i < 5; i++ {
		feed.Error(fmt.Sprintf("error %d", i))
	}

	items := feed.List()
	if len(items) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(items))
	}
	if items[0].Message != "error 2" {
		t.Errorf("oldest kept = %q, want %q", items[0].Message, "error 2")
	}
}

func TestFeedConcurrent(t *testing.T) {
	feed := NewFeed()
	feed.Limit = 1000
	h := feed.Loading("pending")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			feed.Update(h, fetcch.NotificationLoading, fmt.Sprintf("tick %d", i))
			feed.Success("ok")
			_ = feed.List()
		}(i)
	}
	wg.Wait()

	if got := len(feed.List()); got != 21 {
		t.Errorf("len(List()) = %d, want 21", got)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := NewLog(logger)

	h := n.Loading("Checking payment request")
	n.Update(h, fetcch.NotificationSuccess, "resolved")
	n.Error("Wrong Fetcch ID")

	out := buf.String()
	for _, want := range []string{"Checking payment request", "resolved", "Wrong Fetcch ID", string(h)} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("error notification not logged at error level:\n%s", out)
	}
}

func TestMultiSharesHandle(t *testing.T) {
	a, b := NewFeed(), NewFeed()
	m := Multi{a, b}

	h := m.Loading("pending")
	m.Update(h, fetcch.NotificationSuccess, "done")

	for i, feed := range []*Feed{a, b} {
		n, ok := feed.Get(h)
		if !ok {
			t.Fatalf("feed %d has no entry for %s", i, h)
		}
		if n.Kind != fetcch.NotificationSuccess || n.Message != "done" {
			t.Errorf("feed %d entry = %+v", i, n)
		}
	}

	if h := (Multi{}).Error("nobody listening"); h == "" {
		t.Error("empty Multi should still return a handle")
	}
}
