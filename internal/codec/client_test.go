package codec

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region mock
type mockConn struct {
	grpc.ClientConnInterface

	method string
	req    *structpb.Struct
	text   string
	err    error
}

func (m *mockConn) Invoke(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	m.method = method
	m.req = args.(*structpb.Struct)
	if m.err != nil {
		return m.err
	}
	out := reply.(*structpb.Struct)
	out.Fields = map[string]*structpb.Value{}
	if m.text != "" {
		out.Fields["text"] = structpb.NewStringValue(m.text)
	}
	return nil
}

// #endregion mock

// #region constructor-tests
func TestNewCodecClient(t *testing.T) {
	client, err := NewCodecClient("localhost:0", GenerateOptions{})
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestCloseWithoutConn(t *testing.T) {
	c := NewCodecClientWithConn(&mockConn{}, GenerateOptions{})
	if err := c.Close(); err != nil {
		t.Fatalf("close without owned conn: %v", err)
	}
}

// #endregion constructor-tests

// #region generate-tests
func TestGenerate_Success(t *testing.T) {
	mock := &mockConn{text: "hello world"}
	c := NewCodecClientWithConn(mock, GenerateOptions{Model: "llama3", Temperature: 0.2, MaxTokens: 256})

	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected 'hello world', got %q", got)
	}
	if mock.method != GenerateMethod {
		t.Errorf("unexpected method %q", mock.method)
	}
	fields := mock.req.GetFields()
	if fields["prompt"].GetStringValue() != "prompt" || fields["model"].GetStringValue() != "llama3" {
		t.Errorf("unexpected request fields: %v", mock.req)
	}
	if fields["max_tokens"].GetNumberValue() != 256 {
		t.Errorf("max_tokens not forwarded: %v", fields["max_tokens"])
	}
}

func TestGenerate_Error(t *testing.T) {
	mock := &mockConn{err: errors.New("rpc failed")}
	c := NewCodecClientWithConn(mock, GenerateOptions{})

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, mock.err) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

func TestGenerate_EmptyReply(t *testing.T) {
	c := NewCodecClientWithConn(&mockConn{}, GenerateOptions{})
	if _, err := c.Generate(context.Background(), "prompt"); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

// #endregion generate-tests

// #region bufconn-tests
type echoServer struct{}

var generatorDesc = grpc.ServiceDesc{
	ServiceName: "governor.Generator",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Generate",
		Handler: func(_ any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := &structpb.Struct{}
			if err := dec(in); err != nil {
				return nil, err
			}
			return structpb.NewStruct(map[string]any{
				"text": "echo: " + in.GetFields()["prompt"].GetStringValue(),
			})
		},
	}},
}

func TestGenerate_OverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&generatorDesc, echoServer{})
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	defer conn.Close()

	c := NewCodecClientWithConn(conn, GenerateOptions{})
	got, err := c.Generate(context.Background(), "ping")
	if err != nil {
		t.Fatalf("generate over grpc: %v", err)
	}
	if got != "echo: ping" {
		t.Fatalf("unexpected reply %q", got)
	}
}

// #endregion bufconn-tests
