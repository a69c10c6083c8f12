// Package lsp serves Markdown language intelligence over JSON-RPC 2.0 on
// stdio: incremental document sync, hover, completion and published
// diagnostics. Logging goes to a zap logger on a side channel; stdout
// carries only protocol frames.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/intel"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures the language server.
type ServerOptions struct {
	ParseOpts parser.Options
	Logger    *zap.Logger
}

// Server handles stdio JSON-RPC for the Markdown language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	session   *intel.Session
	parseOpts parser.Options
	log       *zap.Logger

	mu                sync.Mutex
	versions          map[string]int
	shutdownRequested bool
}

// NewServer constructs a server reading requests from in and writing
// responses to out.
func NewServer(in io.Reader, out io.Writer, p *parser.Parser, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		session:   intel.NewSession(p),
		parseOpts: opts.ParseOpts,
		log:       logger,
		versions:  make(map[string]int),
	}
}

// Run serves requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("malformed message", zap.Error(err))
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.log.Debug("request", zap.String("method", msg.Method))
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.mu.Lock()
		s.shutdownRequested = true
		s.mu.Unlock()
		return s.sendResponse(msg.ID, nil)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	s.log.Info("initialize", zap.String("root", uriToPath(params.RootURI)))
	return s.sendResponse(msg.ID, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2, // incremental
			},
			HoverProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{"#", ">", "`", "[", ":", "("},
			},
		},
		ServerInfo: serverInfo{Name: "marco-lsp", Version: version.Version},
	})
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	doc, err := s.session.Open(uri, []byte(params.TextDocument.Text), s.parseOpts)
	if err != nil {
		s.log.Error("open failed", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	s.mu.Lock()
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.log.Info("opened", zap.String("uri", uri), zap.String("id", doc.ID.String()))
	return s.publishDiagnostics(uri)
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	for _, change := range params.ContentChanges {
		if change.Range == nil {
			// Full-content sync replaces the document wholesale.
			if _, err := s.session.Open(uri, []byte(change.Text), s.parseOpts); err != nil {
				s.log.Error("full sync failed", zap.String("uri", uri), zap.Error(err))
				return nil
			}
			continue
		}
		doc, ok := s.session.Get(uri)
		if !ok {
			s.log.Warn("change for unopened document", zap.String("uri", uri))
			return nil
		}
		file := doc.Result().File()
		edit := parser.Edit{
			Start:   offsetForPositionInFile(file, change.Range.Start),
			End:     offsetForPositionInFile(file, change.Range.End),
			NewText: []byte(change.Text),
		}
		if _, err := s.session.Edit(uri, edit); err != nil {
			s.log.Error("edit failed", zap.String("uri", uri), zap.Error(err))
			return nil
		}
	}
	s.mu.Lock()
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	return s.publishDiagnostics(uri)
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	s.session.Close(uri)
	s.mu.Lock()
	delete(s.versions, uri)
	s.mu.Unlock()
	return s.sendPublish(uri, 0, nil)
}

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.session.Get(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	res := doc.Result()
	file := res.File()
	info := intel.Hover(res, offsetForPositionInFile(file, params.Position))
	if info == nil {
		return s.sendResponse(msg.ID, nil)
	}
	hoverRange := rangeForSpan(file, info.Span)
	return s.sendResponse(msg.ID, hover{
		Contents: markupContent{Kind: "markdown", Value: info.Markdown()},
		Range:    &hoverRange,
	})
}

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.session.Get(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, completionList{Items: []completionItem{}})
	}
	res := doc.Result()
	candidates := intel.Complete(res, offsetForPositionInFile(res.File(), params.Position))
	items := make([]completionItem, len(candidates))
	for i, c := range candidates {
		items[i] = completionItem{
			Label:      c.Label,
			Kind:       completionItemKindSnippet,
			Detail:     c.Detail,
			InsertText: c.Insert,
		}
	}
	return s.sendResponse(msg.ID, completionList{Items: items})
}

const completionItemKindSnippet = 15

func (s *Server) publishDiagnostics(uri string) error {
	doc, ok := s.session.Get(uri)
	if !ok {
		return nil
	}
	res := doc.Result()
	file := res.File()
	list := make([]lspDiagnostic, 0, 8)
	for _, d := range intel.Diagnostics(res) {
		list = append(list, lspDiagnostic{
			Range:    rangeForSpan(file, d.Primary),
			Severity: lspSeverity(d.Severity),
			Code:     d.Code.ID(),
			Source:   "marco",
			Message:  d.Message,
		})
	}
	s.mu.Lock()
	ver := s.versions[uri]
	s.mu.Unlock()
	return s.sendPublish(uri, ver, list)
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error":   rpcError{Code: code, Message: message},
	})
}

func (s *Server) sendPublish(uri string, ver int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     ver,
			Diagnostics: list,
		},
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
