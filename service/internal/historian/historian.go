// Package historian forwards game action records to external streams.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ActionRecord is one entry of a game's action history.
type ActionRecord struct {
	GameID      uuid.UUID      `json:"gameId" yaml:"gameId"`
	ActionIndex int            `json:"actionIndex" yaml:"actionIndex"`
	Actor       int            `json:"actor" yaml:"actor"` // seat index, or -1 for game events
	ActionType  string         `json:"actionType" yaml:"actionType"`
	Payload     map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Timestamp   int64          `json:"timestamp" yaml:"timestamp"` // Unix milliseconds
}

// NoActor marks records produced by the game rather than a seat.
const NoActor = -1

// Encoding selects the wire form of records on the streams.
type Encoding string

const (
	EncodingJSON  Encoding = "json"
	EncodingProto Encoding = "proto" // google.protobuf.Struct with the JSON field names
)

// ParseEncoding accepts "json", "proto" or "" (json).
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingProto:
		return EncodingProto, nil
	}
	return "", fmt.Errorf("unknown record encoding %q", s)
}

// Encode returns the JSON form of the record.
func (r ActionRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// EncodeAs returns the record in the given encoding.
func (r ActionRecord) EncodeAs(enc Encoding) ([]byte, error) {
	data, err := r.Encode()
	if err != nil || enc != EncodingProto {
		return data, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// Decode parses a record produced by EncodeAs.
func Decode(enc Encoding, data []byte) (ActionRecord, error) {
	var rec ActionRecord
	if enc == EncodingProto {
		var st structpb.Struct
		if err := proto.Unmarshal(data, &st); err != nil {
			return rec, err
		}
		js, err := json.Marshal(st.AsMap())
		if err != nil {
			return rec, err
		}
		data = js
	}
	err := json.Unmarshal(data, &rec)
	return rec, err
}

// Sink receives action records. Implementations must be safe for concurrent
// use; the game controller publishes from background goroutines.
type Sink interface {
	Publish(ctx context.Context, rec ActionRecord) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Publish(context.Context, ActionRecord) error { return nil }
func (Nop) Close() error                                { return nil }

// Fanout publishes each record to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, rec ActionRecord) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns a single sink for sinks: Nop when there are none, the sink
// itself when there is one, and a Fanout otherwise. Nil entries are skipped.
func Combine(sinks ...Sink) Sink {
	var live Fanout
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	switch len(live) {
	case 0:
		return Nop{}
	case 1:
		return live[0]
	}
	return live
}
