package producer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"society-shield/backend/internal/audit/domain"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaPublisher_Disabled(t *testing.T) {
	if p := NewKafkaPublisher(nil, "topic"); p != nil {
		t.Error("no brokers should disable the publisher")
	}
	if p := NewKafkaPublisher([]string{"localhost:9092"}, ""); p != nil {
		t.Error("empty topic should disable the publisher")
	}
	var p *KafkaPublisher
	if err := p.Publish(context.Background(), &domain.AuditLog{}); err != nil {
		t.Errorf("nil publisher Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil publisher Close: %v", err)
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	entry := &domain.AuditLog{ID: "a1", Action: "ROOT_LOGIN", EntityType: "platform_root_account", EntityID: "r1", CreatedAt: time.Now().UTC()}
	if err := p.Publish(context.Background(), entry); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != SentinelTenantID {
		t.Errorf("key = %q, want %q", w.msgs[0].Key, SentinelTenantID)
	}
	var ev Event
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.TenantID != SentinelTenantID || ev.Action != "ROOT_LOGIN" || ev.EntityID != "r1" {
		t.Errorf("event = %+v", ev)
	}

	w.err = errors.New("broker down")
	if err := p.Publish(context.Background(), entry); err == nil {
		t.Error("Publish should surface writer errors")
	}
	_ = p.Close()
	if !w.closed {
		t.Error("Close should close the writer")
	}
}

func TestNewEvent_KeepsTenant(t *testing.T) {
	ev := NewEvent(&domain.AuditLog{TenantID: "t1", Action: "AUTH_LOGIN"})
	if ev.TenantID != "t1" {
		t.Errorf("TenantID = %q", ev.TenantID)
	}
}
