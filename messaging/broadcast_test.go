package messaging

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	sent    []Payload
	failFor map[string]error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Send(ctx context.Context, payload Payload) error {
	if err, ok := f.failFor[payload.Phone]; ok {
		return err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func TestSendBulkPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	payloads := []Payload{
		{Phone: "628111", Message: "a"},
		{Phone: "628222", Message: "b"},
		{Phone: "628333", Message: "c"},
	}

	report := NewBroadcaster(provider).WithDelay(0).SendBulk(context.Background(), payloads)

	if report.Sent != 3 || report.Failed != 0 {
		t.Fatalf("report sent=%d failed=%d", report.Sent, report.Failed)
	}
	for i, p := range payloads {
		if provider.sent[i].Phone != p.Phone {
			t.Errorf("send order broken at %d: got %s, want %s", i, provider.sent[i].Phone, p.Phone)
		}
	}
}

func TestSendBulkIsolatesFailures(t *testing.T) {
	provider := &fakeProvider{failFor: map[string]error{
		"628222": errors.New("device offline"),
	}}
	payloads := []Payload{
		{Phone: "628111"},
		{Phone: "628222"},
		{Phone: "628333"},
	}

	report := NewBroadcaster(provider).WithDelay(0).SendBulk(context.Background(), payloads)

	if report.Sent != 2 || report.Failed != 1 {
		t.Fatalf("report sent=%d failed=%d", report.Sent, report.Failed)
	}
	if len(provider.sent) != 2 {
		t.Fatalf("provider received %d sends, want 2", len(provider.sent))
	}
	// The failing recipient must not stop the rest of the batch.
	if provider.sent[1].Phone != "628333" {
		t.Errorf("last send = %s, want 628333", provider.sent[1].Phone)
	}
	if report.Outcomes[1].Sent || report.Outcomes[1].Error == "" {
		t.Errorf("failed outcome not recorded: %+v", report.Outcomes[1])
	}
}

func TestSendBulkCancelledContextMarksRemainderFailed(t *testing.T) {
	provider := &fakeProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payloads := []Payload{{Phone: "628111"}, {Phone: "628222"}, {Phone: "628333"}}
	report := NewBroadcaster(provider).SendBulk(ctx, payloads)

	// The first payload sends before the first pacing wait; the rest fail on
	// the cancelled context.
	if report.Sent != 1 || report.Failed != 2 {
		t.Fatalf("report sent=%d failed=%d", report.Sent, report.Failed)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(report.Outcomes))
	}
}
