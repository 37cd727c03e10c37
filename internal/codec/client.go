// Package codec holds the generator backends the pipeline calls: a gRPC
// inference service, the OpenAI chat API and a rate-limiting wrapper.
package codec

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// GenerateMethod is the full gRPC method name of the inference service.
// Requests and replies are google.protobuf.Struct messages.
const GenerateMethod = "/governor.Generator/Generate"

// ErrEmptyReply is returned when a backend answers without text.
var ErrEmptyReply = errors.New("empty reply")

// #region types
// GenerateOptions are sampling parameters forwarded with every request.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// #endregion types

// #region client-struct
// CodecClient wraps the gRPC connection to the inference service.
type CodecClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
	opts GenerateOptions
}

// #endregion client-struct

// #region constructor
// NewCodecClient connects to the inference gRPC server.
func NewCodecClient(addr string, opts GenerateOptions) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &CodecClient{conn: conn, cc: conn, opts: opts}, nil
}

// NewCodecClientWithConn creates a CodecClient over an existing connection.
// Used for testing without a real server.
func NewCodecClientWithConn(cc grpc.ClientConnInterface, opts GenerateOptions) *CodecClient {
	return &CodecClient{cc: cc, opts: opts}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection when the client owns one.
func (c *CodecClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region generate
// Generate sends a prompt to the inference service and returns its text.
func (c *CodecClient) Generate(ctx context.Context, prompt string) (string, error) {
	fields := map[string]any{"prompt": prompt}
	if c.opts.Model != "" {
		fields["model"] = c.opts.Model
	}
	if c.opts.Temperature > 0 {
		fields["temperature"] = c.opts.Temperature
	}
	if c.opts.MaxTokens > 0 {
		fields["max_tokens"] = c.opts.MaxTokens
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, GenerateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}

	text, ok := resp.GetFields()["text"]
	if !ok || text.GetStringValue() == "" {
		return "", fmt.Errorf("generate rpc: %w", ErrEmptyReply)
	}
	return text.GetStringValue(), nil
}

// #endregion generate
