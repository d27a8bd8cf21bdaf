package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/runner"
	"github.com/mensylisir/dockmcp/pkg/util"
)

// Backend runs container operations. *runner.Runner implements it.
type Backend interface {
	Do(ctx context.Context, req runner.Request) (runner.Result, error)
}

const resourceMimeType = "application/json"

// Server dispatches JSON-RPC messages to the backend. It is safe for concurrent use; each
// message is handled in the context of the session it arrived on.
type Server struct {
	backend   Backend
	sessions  *SessionRegistry
	log       *logger.Logger
	version   string
	tools     map[string]*toolDef
	toolOrder []string
}

func NewServer(backend Backend, version string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Get()
	}
	s := &Server{
		backend:  backend,
		sessions: NewSessionRegistry(),
		log:      log.With("component", "mcp"),
		version:  version,
		tools:    map[string]*toolDef{},
	}
	for _, def := range toolDefs() {
		s.tools[def.Name] = def
		s.toolOrder = append(s.toolOrder, def.Name)
	}
	return s
}

func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// Tools returns the advertised tools in a stable order.
func (s *Server) Tools() []Tool {
	out := make([]Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		out = append(out, s.tools[name].Tool)
	}
	return out
}

// PeekMethod returns the method of a single JSON-RPC message, or "" if there is none.
func PeekMethod(msg []byte) string {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(msg, &probe); err != nil {
		return ""
	}
	return probe.Method
}

// HandleMessage processes one JSON-RPC message or batch and returns the encoded response,
// or nil when nothing must be sent back.
func (s *Server) HandleMessage(sess *Session, msg []byte) []byte {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return s.handleBatch(sess, trimmed)
	}
	resp := s.handleSingle(sess, trimmed)
	if resp == nil {
		return nil
	}
	return s.encode(resp)
}

func (s *Server) handleBatch(sess *Session, msg []byte) []byte {
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return s.encode(errorResponse(nil, ErrCodeParse, "parse error: "+err.Error()))
	}
	if len(items) == 0 {
		return s.encode(errorResponse(nil, ErrCodeInvalidRequest, "empty batch"))
	}
	var responses []*Response
	for _, item := range items {
		if resp := s.handleSingle(sess, item); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}
	return s.encode(responses)
}

func (s *Server) encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Errorf("failed to encode response: %v", err)
		b, _ = json.Marshal(errorResponse(nil, ErrCodeInternal, "failed to encode response"))
	}
	return b
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

func (s *Server) handleSingle(sess *Session, msg []byte) *Response {
	var req struct {
		Request
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse(nil, ErrCodeParse, "parse error: "+err.Error())
	}
	if req.Method == "" {
		// a response from the client; this server never sends requests
		if len(req.ID) > 0 && (len(req.Result) > 0 || len(req.Error) > 0) {
			return nil
		}
		return errorResponse(req.ID, ErrCodeInvalidRequest, "invalid request: method is required")
	}
	if req.JSONRPC != jsonrpcVersion {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, ErrCodeInvalidRequest, `invalid request: jsonrpc must be "2.0"`)
	}

	log := s.log.With("session", shortSession(sess.ID), "method", req.Method)

	if req.IsNotification() {
		s.handleNotification(sess, &req.Request, log)
		return nil
	}

	ctx, done := sess.begin(req.ID)
	defer done()

	result, rpcErr := s.dispatch(ctx, sess, &req.Request, log)
	if rpcErr != nil {
		log.Debugf("request failed: %s", rpcErr.Message)
		return &Response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: rpcErr}
	}
	return resultResponse(req.ID, result)
}

func shortSession(id string) string {
	return util.Truncate(id, 8)
}

func (s *Server) handleNotification(sess *Session, req *Request, log *logger.Logger) {
	switch req.Method {
	case "notifications/initialized":
		sess.markInitialized()
		log.Debugf("client initialized")
	case "notifications/cancelled":
		var p CancelledParams
		if err := json.Unmarshal(req.Params, &p); err != nil || len(p.RequestID) == 0 {
			log.Debugf("ignoring malformed cancel notification")
			return
		}
		if sess.cancelRequest(p.RequestID) {
			log.Infof("request %s cancelled by client: %s", string(p.RequestID), p.Reason)
		}
	default:
		log.Debugf("ignoring notification")
	}
}

func (s *Server) dispatch(ctx context.Context, sess *Session, req *Request, log *logger.Logger) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.initialize(sess, req.Params, log)
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return ToolsListResult{Tools: s.Tools()}, nil
	case "tools/call":
		return s.callTool(ctx, req.Params, log)
	case "resources/list":
		return s.listResources(ctx)
	case "resources/templates/list":
		return ResourceTemplatesListResult{ResourceTemplates: []ResourceTemplate{{
			URITemplate: common.ResourceURITemplate,
			Name:        "container",
			Description: "docker inspect document of a container",
			MimeType:    resourceMimeType,
		}}}, nil
	case "resources/read":
		return s.readResource(ctx, req.Params)
	default:
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

func (s *Server) initialize(sess *Session, params json.RawMessage, log *logger.Logger) (any, *RPCError) {
	var p InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid initialize params: " + err.Error()}
		}
	}
	sess.setClient(p.ClientInfo, p.ProtocolVersion)
	log.Infof("client %s %s connected (protocol %s)", util.FirstNonEmpty(p.ClientInfo.Name, "unknown"), p.ClientInfo.Version, p.ProtocolVersion)
	return InitializeResult{
		ProtocolVersion: common.MCPProtocolVersion,
		ServerInfo:      Implementation{Name: common.MCPServerName, Version: s.version},
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
		Instructions: "Read-only access to the local Docker daemon, plus command execution inside running containers.",
	}, nil
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage, log *logger.Logger) (any, *RPCError) {
	var p ToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid tools/call params: " + err.Error()}
	}
	def, ok := s.tools[p.Name]
	if !ok {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", p.Name)}
	}

	d := newArgDecoder(p.Arguments)
	req := def.decode(d)
	if err := runner.ValidateDecoded(req, d.errs); err != nil {
		return errorResult(err), nil
	}

	res, err := s.backend.Do(ctx, req)
	if err != nil {
		log.With("tool", p.Name).Debugf("tool failed: %v", err)
		return errorResult(err), nil
	}
	return renderResult(res), nil
}

func (s *Server) listResources(ctx context.Context) (any, *RPCError) {
	res, err := s.backend.Do(ctx, runner.ListInput{All: true})
	if err != nil {
		return nil, classifiedRPCError(err)
	}
	list, ok := res.(*runner.ListResult)
	if !ok {
		return nil, &RPCError{Code: ErrCodeInternal, Message: fmt.Sprintf("unexpected result type %T", res)}
	}
	out := ResourcesListResult{Resources: make([]Resource, 0, len(list.Containers))}
	for _, c := range list.Containers {
		out.Resources = append(out.Resources, Resource{
			URI:         common.ResourceURIPrefix + c.ID,
			Name:        util.FirstNonEmpty(c.Name, c.ShortID()),
			Description: fmt.Sprintf("%s (%s)", c.Image, c.Status),
			MimeType:    resourceMimeType,
		})
	}
	return out, nil
}

func (s *Server) readResource(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p ResourceReadParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid resources/read params: " + err.Error()}
	}
	id, ok := strings.CutPrefix(p.URI, common.ResourceURIPrefix)
	if !ok || id == "" {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("unknown resource URI %q, expected %s", p.URI, common.ResourceURITemplate)}
	}
	res, err := s.backend.Do(ctx, runner.InspectInput{Container: id})
	if err != nil {
		return nil, classifiedRPCError(err)
	}
	doc, ok := res.(*runner.InspectResult)
	if !ok {
		return nil, &RPCError{Code: ErrCodeInternal, Message: fmt.Sprintf("unexpected result type %T", res)}
	}
	return ResourceReadResult{Contents: []ResourceContent{{URI: p.URI, MimeType: resourceMimeType, Text: string(doc.Document)}}}, nil
}

// classifiedRPCError is used where the protocol has no result envelope for failures.
func classifiedRPCError(err error) *RPCError {
	c := classify.Classify(err)
	code := ErrCodeInternal
	switch c.Kind {
	case classify.InvalidArgument:
		code = ErrCodeInvalidParams
	case classify.ContainerNotFound:
		code = ErrCodeResourceNotFound
	}
	return &RPCError{
		Code:    code,
		Message: fmt.Sprintf("%s: %s", c.Kind, c.Message),
		Data:    ErrorPayload{Kind: string(c.Kind), Message: c.Message, Code: c.Code},
	}
}
