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

// Package s3 holds a kgx.Sink which archives indexed documents to S3.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/klauspost/compress/gzip"
	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

var _ kgx.Sink = &Sink{}

// SinkOption is a functional option type for s3.Sink.
type SinkOption func(s *Sink)

// OptSinkBucket is a SinkOption which sets the S3 bucket for a Sink.
func OptSinkBucket(bucket string) SinkOption {
	return func(s *Sink) {
		s.bucket = bucket
	}
}

// OptSinkRegion is a SinkOption which sets the AWS region for a Sink.
func OptSinkRegion(region string) SinkOption {
	return func(s *Sink) {
		s.region = region
	}
}

// OptSinkPrefix sets the prefix of every object key the Sink writes.
func OptSinkPrefix(prefix string) SinkOption {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// Sink writes every batch of documents to one gzipped object of line
// separated JSON.
type Sink struct {
	bucket string
	prefix string
	region string

	s3  s3iface.S3API
	seq uint64
}

// NewSink returns a new Sink with the options applied, using the default AWS
// credential chain.
func NewSink(opts ...SinkOption) (*Sink, error) {
	s := &Sink{}
	for _, opt := range opts {
		opt(s)
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(s.region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	s.s3 = s3.New(sess)
	return s, nil
}

// NewSinkFromClient returns a new Sink writing through client.
func NewSinkFromClient(client s3iface.S3API, opts ...SinkOption) *Sink {
	s := &Sink{s3: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index implements kgx.Sink. Documents without an identifier are skipped.
func (s *Sink) Index(ctx context.Context, docs []kgx.Document) (int, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	enc := json.NewEncoder(zw)
	n := 0
	for _, d := range docs {
		if d.ID() == "" {
			continue
		}
		if err := enc.Encode(d); err != nil {
			return 0, errors.Wrapf(err, "encoding '%s'", d.ID())
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if err := zw.Close(); err != nil {
		return 0, errors.Wrap(err, "compressing")
	}
	key := s.key(atomic.AddUint64(&s.seq, 1))
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return 0, errors.Wrapf(err, "putting %s", key)
	}
	return n, nil
}

func (s *Sink) key(seq uint64) string {
	return fmt.Sprintf("%sbatch-%08d.jsonl.gz", s.prefix, seq)
}
