package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
)

// settlement records how a delivery was settled.
type settlement struct {
	acked, nacked, requeued bool
}

func (s *settlement) Ack(uint64, bool) error { s.acked = true; return nil }

func (s *settlement) Nack(_ uint64, _ bool, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}

func (s *settlement) Reject(_ uint64, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}

func TestDeliver(t *testing.T) {
	valid := []byte(`{"op":"created","id":"tx-1","count":1,"timestamp":"2026-10-16T12:00:00Z"}`)

	tests := []struct {
		name    string
		body    []byte
		handler func(*Change) error
		want    settlement
	}{
		{"handled", valid, func(*Change) error { return nil }, settlement{acked: true}},
		{"handler fails", valid, func(*Change) error { return errors.New("stdout closed") }, settlement{nacked: true, requeued: true}},
		{"undecodable", []byte(`{not json`), func(*Change) error { return errors.New("handler called") }, settlement{nacked: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &settlement{}
			d := amqp091.Delivery{Acknowledger: ack, Body: tt.body}
			if err := deliver(context.Background(), d, tt.handler); err != nil {
				t.Fatalf("deliver: %v", err)
			}
			if *ack != tt.want {
				t.Errorf("settlement = %+v, want %+v", *ack, tt.want)
			}
		})
	}
}

func TestDeliverPassesDecodedChange(t *testing.T) {
	body := []byte(`{"op":"imported","count":4,"timestamp":"2026-10-16T12:00:00Z"}`)
	var got *Change
	d := amqp091.Delivery{Acknowledger: &settlement{}, Body: body}
	if err := deliver(context.Background(), d, func(c *Change) error { got = c; return nil }); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got == nil || got.Op != OpImported || got.Count != 4 || got.ID != "" {
		t.Fatalf("unexpected change %+v", got)
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
