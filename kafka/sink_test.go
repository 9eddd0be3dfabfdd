// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

type recordingProducer struct {
	sarama.SyncProducer
	msgs []*sarama.ProducerMessage
}

func (p *recordingProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func TestSink(t *testing.T) {
	producer := &recordingProducer{}
	s := NewSinkFromProducer(producer, "kgx-edges")
	docs := []kgx.Document{
		{"_id": "e1", "subject": kgx.Document{"name": "A"}},
		{"subject": "no id"},
		{"_id": "e2", "object": nil},
	}
	n, err := s.Index(context.Background(), docs)
	if err != nil {
		t.Fatalf("indexing: %v", err)
	}
	if n != 2 || len(producer.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d/%d", n, len(producer.msgs))
	}
	for i, exp := range []string{"e1", "e2"} {
		msg := producer.msgs[i]
		if msg.Topic != "kgx-edges" {
			t.Fatalf("unexpected topic %s", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil || string(key) != exp {
			t.Fatalf("unexpected key %s, %v", key, err)
		}
		val, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("encoding value: %v", err)
		}
		var d kgx.Document
		if err := json.Unmarshal(val, &d); err != nil {
			t.Fatalf("unmarshaling %s: %v", val, err)
		}
		if d.ID() != exp {
			t.Fatalf("unexpected message %s", val)
		}
	}
}

func TestSinkMockProducer(t *testing.T) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, conf)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()
	s := NewSinkFromProducer(producer, "kgx-edges")
	n, err := s.Index(context.Background(), []kgx.Document{{"_id": "e1"}, {"_id": "e2"}})
	if err != nil || n != 2 {
		t.Fatalf("indexing: %d, %v", n, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
}

func TestSinkError(t *testing.T) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, conf)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	s := NewSinkFromProducer(producer, "kgx-edges")
	_, err := s.Index(context.Background(), []kgx.Document{{"_id": "e1"}})
	if errors.Cause(err) != sarama.ErrNotLeaderForPartition {
		t.Fatalf("expected producer error, got %v", err)
	}
	if n, err := s.Index(context.Background(), []kgx.Document{{"name": "none"}}); n != 0 || err != nil {
		t.Fatalf("empty batch: %d, %v", n, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
}
