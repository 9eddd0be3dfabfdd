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

// Package kafka holds a kgx.Sink which publishes indexed documents to a Kafka
// topic.
package kafka

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"

	"github.com/Shopify/sarama"
	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

var _ kgx.Sink = &Sink{}

// Sink publishes each document as a JSON message keyed by its identifier.
// All documents of one call are sent together and the call returns once the
// brokers acknowledged them.
type Sink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewSink connects a producer to the Kafka brokers at hosts.
func NewSink(hosts []string, topic string) (*Sink, error) {
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	producer, err := sarama.NewSyncProducer(hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	return NewSinkFromProducer(producer, topic), nil
}

// NewSinkFromProducer returns a Sink sending through producer.
func NewSinkFromProducer(producer sarama.SyncProducer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// Index implements kgx.Sink. Documents without an identifier are skipped.
func (s *Sink) Index(ctx context.Context, docs []kgx.Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(docs))
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			continue
		}
		val, err := json.Marshal(d)
		if err != nil {
			return 0, errors.Wrapf(err, "marshaling '%s'", id)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(id),
			Value: sarama.ByteEncoder(val),
		})
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	err := s.producer.SendMessages(msgs)
	if err != nil {
		return 0, errors.Wrapf(err, "sending %d messages to %s", len(msgs), s.topic)
	}
	return len(msgs), nil
}

// Close closes the producer.
func (s *Sink) Close() error {
	return errors.Wrap(s.producer.Close(), "closing kafka producer")
}
