// Package rpc exposes a tracker over gRPC as semdrift.v1.DriftService.
//
// Messages are google.protobuf.Struct values so the service needs no
// generated code. Field names are snake_case:
//
//	Update       {embedding, now_ms}  -> {drift_detected, drift_score, vector}
//	GetSnapshot  {now_ms}             -> {vector, health_score, timestamp, semantic_summary}
//	Normalize    {vector}             -> {vector}
package rpc

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/danielpatrickdp/semdrift/internal/state"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct field names.
const (
	fieldEmbedding       = "embedding"
	fieldNowMs           = "now_ms"
	fieldVector          = "vector"
	fieldDriftDetected   = "drift_detected"
	fieldDriftScore      = "drift_score"
	fieldHealthScore     = "health_score"
	fieldTimestamp       = "timestamp"
	fieldSemanticSummary = "semantic_summary"
)

// #region vectors
func vectorValue(v []float32) *structpb.Value {
	values := make([]*structpb.Value, len(v))
	for i, x := range v {
		values[i] = structpb.NewNumberValue(float64(x))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// vectorField reads a numeric list. A missing field decodes to an empty vector.
// Elements must be finite once narrowed to float32.
func vectorField(s *structpb.Struct, name string) ([]float32, error) {
	val, ok := s.GetFields()[name]
	if !ok {
		return []float32{}, nil
	}
	list := val.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q is not a list", name)
	}
	out := make([]float32, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not a number", name, i)
		}
		f := float32(n.NumberValue)
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return nil, fmt.Errorf("%s[%d] is not a finite float32", name, i)
		}
		out[i] = f
	}
	return out, nil
}

// numberField reads an optional number. ok is false when the field is absent.
func numberField(s *structpb.Struct, name string) (v float64, ok bool, err error) {
	val, present := s.GetFields()[name]
	if !present {
		return 0, false, nil
	}
	n, isNum := val.GetKind().(*structpb.Value_NumberValue)
	if !isNum {
		return 0, false, fmt.Errorf("field %q is not a number", name)
	}
	return n.NumberValue, true, nil
}

// #endregion vectors

// #region requests
func updateRequest(embedding []float32, nowMs float64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEmbedding: vectorValue(embedding),
		fieldNowMs:     structpb.NewNumberValue(nowMs),
	}}
}

func snapshotRequest(nowMs float64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldNowMs: structpb.NewNumberValue(nowMs),
	}}
}

func normalizeRequest(v []float32) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldVector: vectorValue(v),
	}}
}

// #endregion requests

// #region responses
func updateResponse(r state.UpdateResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldDriftDetected: structpb.NewBoolValue(r.DriftDetected),
		fieldDriftScore:    structpb.NewNumberValue(float64(r.DriftScore)),
		fieldVector:        vectorValue(r.Vector),
	}}
}

func parseUpdateResponse(s *structpb.Struct) (state.UpdateResult, error) {
	vec, err := vectorField(s, fieldVector)
	if err != nil {
		return state.UpdateResult{}, err
	}
	score, _, err := numberField(s, fieldDriftScore)
	if err != nil {
		return state.UpdateResult{}, err
	}
	return state.UpdateResult{
		DriftDetected: s.GetFields()[fieldDriftDetected].GetBoolValue(),
		DriftScore:    float32(score),
		Vector:        vec,
	}, nil
}

func snapshotResponse(snap state.Snapshot) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldVector:          vectorValue(snap.Vector),
		fieldHealthScore:     structpb.NewNumberValue(float64(snap.HealthScore)),
		fieldTimestamp:       structpb.NewNumberValue(snap.Timestamp),
		fieldSemanticSummary: structpb.NewStringValue(snap.SemanticSummary),
	}}
}

func parseSnapshotResponse(s *structpb.Struct) (state.Snapshot, error) {
	vec, err := vectorField(s, fieldVector)
	if err != nil {
		return state.Snapshot{}, err
	}
	health, _, err := numberField(s, fieldHealthScore)
	if err != nil {
		return state.Snapshot{}, err
	}
	ts, _, err := numberField(s, fieldTimestamp)
	if err != nil {
		return state.Snapshot{}, err
	}
	return state.Snapshot{
		Vector:          vec,
		HealthScore:     float32(health),
		Timestamp:       ts,
		SemanticSummary: s.GetFields()[fieldSemanticSummary].GetStringValue(),
	}, nil
}

// #endregion responses
