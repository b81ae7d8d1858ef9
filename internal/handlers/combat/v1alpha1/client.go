package v1alpha1

import (
	"context"
	"encoding/json"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Client calls the combat service over a gRPC connection. Errors come back
// as internal errors so callers can use the errors.Is helpers.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a client on an established connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes a unary method. resp is filled from the response's json shape;
// a MutationResponse may carry a typed pointer in Result to decode into.
func (c *Client) Call(ctx context.Context, method string, req, resp any) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return errors.FromGRPCError(err)
	}
	return unmarshalStruct(out, resp)
}

// WatchLog streams an encounter's entries to fn until ctx ends, the server
// closes the stream or fn returns an error.
func (c *Client) WatchLog(ctx context.Context, req *LogRequest, fn func(combat.LogEntry) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod("WatchLog"))
	if err != nil {
		return errors.FromGRPCError(err)
	}
	in, err := encode(req)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return errors.FromGRPCError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return errors.FromGRPCError(err)
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.FromGRPCError(err)
		}
		var entry combat.LogEntry
		if err := unmarshalStruct(msg, &entry); err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

func unmarshalStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeInternal, "failed to read response")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.WrapWithCode(err, errors.CodeInternal, "malformed response")
	}
	return nil
}
