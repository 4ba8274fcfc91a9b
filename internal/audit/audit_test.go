package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skillrise/payment-security/internal/models"
)

func TestMaskDetails(t *testing.T) {
	details := map[string]interface{}{
		"cardNumber": "4111 1111 1111 1111",
		"cvv":        "123",
		"ssn":        "123-45-6789",
		"amount":     "49.99",
		"card": map[string]interface{}{
			"card_number": "5555555555554444",
			"CVC":         "999",
		},
		"attempt": 2,
	}

	got := MaskDetails(details)

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{name: "card number", got: got["cardNumber"], want: "************1111"},
		{name: "cvv", got: got["cvv"], want: "***"},
		{name: "ssn", got: got["ssn"], want: "***-**-6789"},
		{name: "amount untouched", got: got["amount"], want: "49.99"},
		{name: "nested card", got: got["card"].(map[string]interface{})["card_number"], want: "************4444"},
		{name: "nested cvc", got: got["card"].(map[string]interface{})["CVC"], want: "***"},
		{name: "non string untouched", got: got["attempt"], want: 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if details["cvv"] != "123" {
		t.Error("MaskDetails modified its input")
	}
}

func TestMaskDetailsSlices(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]interface{}
		leaks   []string
	}{
		{
			name: "slice of maps",
			details: map[string]interface{}{
				"cards": []interface{}{
					map[string]interface{}{"cardNumber": "4111111111111111", "cvv": "321"},
					map[string]interface{}{"pan": "5555 5555 5555 4444"},
				},
			},
			leaks: []string{"4111111111111111", "5555 5555 5555 4444", "321"},
		},
		{
			name: "typed slice of maps",
			details: map[string]interface{}{
				"cards": []map[string]interface{}{{"card_number": "378282246310005"}},
			},
			leaks: []string{"378282246310005"},
		},
		{
			name:    "sensitive key holding a list",
			details: map[string]interface{}{"cardNumber": []string{"4111111111111111", "6011111111111117"}},
			leaks:   []string{"4111111111111111", "6011111111111117"},
		},
		{
			name: "nested lists",
			details: map[string]interface{}{
				"batches": []interface{}{[]interface{}{map[string]interface{}{"ssn": "123-45-6789"}}},
			},
			leaks: []string{"123-45-6789"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(MaskDetails(tt.details))
			if err != nil {
				t.Fatal(err)
			}
			for _, leak := range tt.leaks {
				if strings.Contains(string(body), leak) {
					t.Errorf("masked details %s contain %q", body, leak)
				}
			}
		})
	}

	in := []interface{}{map[string]interface{}{"cvv": "321"}}
	got := MaskDetails(map[string]interface{}{"cards": in})
	if v := got["cards"].([]interface{})[0].(map[string]interface{})["cvv"]; v != "***" {
		t.Errorf("cvv in slice = %v, want ***", v)
	}
	if in[0].(map[string]interface{})["cvv"] != "321" {
		t.Error("MaskDetails modified a slice in its input")
	}
}

func TestMaskSSN(t *testing.T) {
	if got := MaskSSN("123456789"); got != "***-**-6789" {
		t.Errorf("MaskSSN() = %q", got)
	}
	if got := MaskSSN("12"); got != "***-**-****" {
		t.Errorf("MaskSSN(short) = %q", got)
	}
}

type recordingSink struct {
	name   string
	err    error
	events []*models.AuditEvent
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, e *models.AuditEvent) error {
	s.events = append(s.events, e)
	return s.err
}

func TestLogPaymentEventNeverLeaksCardData(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := &recordingSink{name: "memory"}
	l := NewLogger(zap.New(core), sink)

	event := l.LogPaymentEvent(context.Background(), models.AuditAttempt, "u1", map[string]interface{}{
		"cardNumber": "4111111111111111",
		"cvv":        "123",
		"amount":     "10.00",
	})

	if event.ComplianceTag != "PCI-DSS" || event.EventType != models.AuditAttempt || event.ID == "" {
		t.Errorf("event = %+v", event)
	}
	if len(sink.events) != 1 || sink.events[0] != event {
		t.Fatalf("sink received %d events", len(sink.events))
	}

	raw, _ := json.Marshal(event)
	for _, entry := range logs.All() {
		raw = append(raw, fmt.Sprint(entry.ContextMap())...)
	}
	for _, secret := range []string{"4111111111111111", `"123"`} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("%s leaked into audit output: %s", secret, raw)
		}
	}
}

func TestLogPaymentEventSurvivesSinkFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := &recordingSink{name: "broken", err: errors.New("broker unavailable")}
	ok := &recordingSink{name: "ok"}
	l := NewLogger(zap.New(core), failing, ok)

	event := l.LogPaymentEvent(context.Background(), models.AuditError, "u1", nil)
	if event == nil {
		t.Fatal("no event returned")
	}
	if len(ok.events) != 1 {
		t.Error("healthy sink skipped after a failing one")
	}
	if logs.FilterMessage("failed to write audit event").Len() != 1 {
		t.Error("sink failure not logged")
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func TestKafkaSinkRoundTrip(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)
	l := NewLogger(zap.NewNop(), sink)

	sent := l.LogPaymentEvent(context.Background(), models.AuditSuccess, "u42", map[string]interface{}{"cvv": "999"})

	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "u42" {
		t.Fatalf("messages = %+v", w.msgs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{msgs: append(w.msgs, kafka.Message{Value: []byte("not json")})}

	var received []*models.AuditEvent
	err := ConsumeEvents(ctx, r, zap.NewNop(), func(e *models.AuditEvent) {
		received = append(received, e)
		cancel()
	})
	if err != nil {
		t.Fatalf("ConsumeEvents: %v", err)
	}
	if len(received) != 1 || received[0].ID != sent.ID || received[0].MaskedDetails["cvv"] != "***" {
		t.Errorf("received = %+v", received)
	}
}
