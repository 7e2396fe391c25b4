package rpc

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/semdrift/internal/state"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client calls a remote DriftService.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to a DriftService at addr without transport security.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close does not close it.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down a connection opened by NewClient.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region calls
// Update sends one embedding. Engine rejections come back as
// state.ErrEmptyEmbedding or *state.DimensionMismatchError.
func (c *Client) Update(ctx context.Context, embedding []float32, nowMs float64) (state.UpdateResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, updateMethod, updateRequest(embedding, nowMs), out); err != nil {
		return state.UpdateResult{}, fmt.Errorf("update rpc: %w", fromStatus(err))
	}
	res, err := parseUpdateResponse(out)
	if err != nil {
		return state.UpdateResult{}, fmt.Errorf("decode update response: %w", err)
	}
	return res, nil
}

// Snapshot requests the remote snapshot at nowMs.
func (c *Client) Snapshot(ctx context.Context, nowMs float64) (state.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSnapshotMethod, snapshotRequest(nowMs), out); err != nil {
		return state.Snapshot{}, fmt.Errorf("snapshot rpc: %w", fromStatus(err))
	}
	snap, err := parseSnapshotResponse(out)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("decode snapshot response: %w", err)
	}
	return snap, nil
}

// Normalize asks the service for the unit-length form of v.
func (c *Client) Normalize(ctx context.Context, v []float32) ([]float32, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, normalizeMethod, normalizeRequest(v), out); err != nil {
		return nil, fmt.Errorf("normalize rpc: %w", fromStatus(err))
	}
	vec, err := vectorField(out, fieldVector)
	if err != nil {
		return nil, fmt.Errorf("decode normalize response: %w", err)
	}
	return vec, nil
}

// #endregion calls

// #region errors
// fromStatus turns InvalidArgument statuses carrying an engine message back
// into the engine's error values.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		return err
	}
	msg := st.Message()
	if msg == state.ErrEmptyEmbedding.Error() {
		return state.ErrEmptyEmbedding
	}
	var dim state.DimensionMismatchError
	if _, serr := fmt.Sscanf(msg, "Embedding dimension mismatch: expected %d, got %d", &dim.Expected, &dim.Got); serr == nil {
		return &dim
	}
	return err
}

// #endregion errors
