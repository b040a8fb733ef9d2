// ABOUTME: Tests for the SQLite dead-letter store.
package webhook_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/kanbanfs/board/webhook"
)

func openDeadLetters(t *testing.T) *webhook.DeadLetters {
	t.Helper()
	dl, err := webhook.OpenDeadLetters(filepath.Join(t.TempDir(), "dead.db"))
	if err != nil {
		t.Fatalf("OpenDeadLetters: %v", err)
	}
	t.Cleanup(func() { _ = dl.Close() })
	return dl
}

func TestDeadLettersInsertList(t *testing.T) {
	dl := openDeadLetters(t)
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	for i, event := range []string{"task.created", "task.moved"} {
		err := dl.Insert(webhook.Failure{
			WebhookID:  "h1",
			URL:        "http://example.invalid",
			Event:      event,
			StatusCode: 500 + i,
			Err:        "boom",
			Payload:    []byte(`{"event":"` + event + `"}`),
			At:         at,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all, err := dl.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("List(0) = %d rows", len(all))
	}
	newest := all[0]
	if newest.Event != "task.moved" || newest.StatusCode != 501 || !newest.At.Equal(at) {
		t.Errorf("newest = %+v", newest)
	}
	if string(newest.Payload) != `{"event":"task.moved"}` {
		t.Errorf("payload = %s", newest.Payload)
	}

	one, err := dl.List(1)
	if err != nil || len(one) != 1 {
		t.Errorf("List(1) = %d rows, %v", len(one), err)
	}
}

func TestDeadLettersRecordAndPurge(t *testing.T) {
	dl := openDeadLetters(t)
	dl.Record(webhook.Failure{WebhookID: "h2", URL: "http://x", Event: "task.deleted", Err: "timeout"})
	rows, _ := dl.List(0)
	if len(rows) != 1 || rows[0].At.IsZero() {
		t.Fatalf("rows = %+v", rows)
	}
	n, err := dl.Purge()
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v", n, err)
	}
	rows, _ = dl.List(0)
	if len(rows) != 0 {
		t.Errorf("rows after purge = %d", len(rows))
	}
}

func TestDeadLettersReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.db")
	dl, err := webhook.OpenDeadLetters(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := dl.Insert(webhook.Failure{WebhookID: "h", URL: "u", Event: "e", Err: "x"}); err != nil {
		t.Fatal(err)
	}
	_ = dl.Close()

	again, err := webhook.OpenDeadLetters(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = again.Close() }()
	rows, _ := again.List(0)
	if len(rows) != 1 {
		t.Errorf("rows after reopen = %d", len(rows))
	}
}
