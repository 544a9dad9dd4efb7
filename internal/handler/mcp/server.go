package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sirupsen/logrus"
)

const maxMessageSize = 10 * 1024 * 1024

// Server dispatches MCP JSON-RPC messages to the tool registry.
type Server struct {
	registry *Registry
	info     Implementation
}

func NewServer(registry *Registry, name, version string) *Server {
	return &Server{
		registry: registry,
		info:     Implementation{Name: name, Version: version},
	}
}

// HandleMessage processes one JSON-RPC message or batch. It returns nil when
// nothing should be written back, which is the case for notifications.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '[' {
		return s.handleBatch(ctx, trimmed)
	}

	resp := s.handleSingle(ctx, trimmed)
	if resp == nil {
		return nil
	}

	return mustMarshal(resp)
}

func (s *Server) handleBatch(ctx context.Context, raw []byte) []byte {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return mustMarshal(errorResponse(nil, CodeParseError, "Parse error", err.Error()))
	}
	if len(items) == 0 {
		return mustMarshal(errorResponse(nil, CodeInvalidRequest, "Invalid Request", "empty batch"))
	}

	responses := make([]*Response, 0, len(items))
	for _, item := range items {
		if resp := s.handleSingle(ctx, item); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}

	return mustMarshal(responses)
}

func (s *Server) handleSingle(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, CodeParseError, "Parse error", err.Error())
	}

	if req.JSONRPC != constant.MCPJSONRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid Request", nil)
	}

	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: constant.MCPJSONRPCVersion, ID: req.ID, Error: rpcErr}
	}

	return &Response{JSONRPC: constant.MCPJSONRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case MethodInitialize:
		return s.initialize(req.Params), nil
	case MethodInitialized, MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return ListToolsResult{Tools: s.registry.Descriptors()}, nil
	case MethodToolsCall:
		return s.callTool(ctx, req.Params)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "Method not found", Data: req.Method}
	}
}

func (s *Server) initialize(params json.RawMessage) InitializeResult {
	var p InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			logrus.WithError(err).Debug("ignoring malformed initialize params")
		}
	}

	logrus.WithFields(logrus.Fields{
		"client":           p.ClientInfo.Name,
		"client_version":   p.ClientInfo.Version,
		"protocol_version": p.ProtocolVersion,
	}).Info("mcp session initialized")

	return InitializeResult{
		ProtocolVersion: constant.MCPProtocolVersion,
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		ServerInfo:      s.info,
		Instructions:    serverInstructions,
	}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p CallToolParams
	if len(params) == 0 {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: "missing tool name"}
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: err.Error()}
	}

	res, err := s.registry.Run(ctx, p.Name, p.Arguments)
	if err != nil {
		var argErr *ArgumentError
		switch {
		case errors.Is(err, ErrToolNotFound):
			return nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("Unknown tool: %s", p.Name)}
		case errors.As(err, &argErr):
			return textResult(Result{Text: argErr.Error(), IsError: true}), nil
		default:
			return textResult(Result{Text: err.Error(), IsError: true}), nil
		}
	}

	return textResult(res), nil
}

// ServeStdio reads newline-delimited messages from in and writes responses to
// out, one per line, until in is exhausted or ctx is cancelled. A line over
// maxMessageSize is discarded and answered with an invalid request error.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReaderSize(in, 64*1024)
	writer := bufio.NewWriter(out)

	lines := make(chan stdioLine)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			data, oversized, err := readMessage(reader, maxMessageSize)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			select {
			case lines <- stdioLine{data: data, oversized: oversized}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("read stdio: %w", err)
				default:
				}
				return nil
			}

			var resp []byte
			if line.oversized {
				logrus.WithField("limit", maxMessageSize).Warn("stdio message too large, discarded")
				resp = mustMarshal(errorResponse(nil, CodeInvalidRequest, "Invalid Request", fmt.Sprintf("message exceeds %d bytes", maxMessageSize)))
			} else {
				resp = s.HandleMessage(ctx, line.data)
			}
			if resp == nil {
				continue
			}
			if _, err := writer.Write(append(resp, '\n')); err != nil {
				return fmt.Errorf("write stdio: %w", err)
			}
			if err := writer.Flush(); err != nil {
				return fmt.Errorf("flush stdio: %w", err)
			}
		}
	}
}

type stdioLine struct {
	data      []byte
	oversized bool
}

// readMessage returns the next line without its line ending. A line longer
// than limit is read to its end and dropped, and reported as oversized.
func readMessage(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var (
		line      []byte
		oversized bool
	)

	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			if len(bytes.TrimRight(chunk, "\r\n"))+len(line) > limit {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			return bytes.TrimRight(line, "\r\n"), oversized, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 && !oversized {
				return nil, false, io.EOF
			}
			return bytes.TrimRight(line, "\r\n"), oversized, nil
		default:
			return nil, false, err
		}
	}
}

func textResult(res Result) ToolResult {
	return ToolResult{
		Content: []Content{{Type: ContentTypeText, Text: res.Text}},
		IsError: res.IsError,
	}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	return &Response{
		JSONRPC: constant.MCPJSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal json-rpc response")
		b, _ = json.Marshal(errorResponse(nil, CodeInternalError, defaultErrorMessage, nil))
	}

	return b
}
