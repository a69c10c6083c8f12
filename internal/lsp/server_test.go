package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

func frame(t *testing.T, msg any) string {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func request(id int, method string, params any) map[string]any {
	m := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		m["params"] = params
	}
	return m
}

func notification(method string, params any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "method": method, "params": params}
}

// runSession feeds the framed messages to a fresh server and returns
// every message it wrote back.
func runSession(t *testing.T, msgs ...any) ([]rpcMessage, error) {
	t.Helper()
	var in bytes.Buffer
	for _, m := range msgs {
		in.WriteString(frame(t, m))
	}
	var out bytes.Buffer
	srv := NewServer(&in, &out, parser.New(nil), ServerOptions{
		ParseOpts: parser.Options{Variant: "gfm"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	err := srv.Run(ctx)

	var responses []rpcMessage
	r := bufio.NewReader(&out)
	for {
		payload, rerr := readMessage(r)
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			t.Fatal(rerr)
		}
		var msg rpcMessage
		if uerr := json.Unmarshal(payload, &msg); uerr != nil {
			t.Fatal(uerr)
		}
		responses = append(responses, msg)
	}
	return responses, err
}

func openDoc(uri, text string) map[string]any {
	return notification("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "markdown", Version: 1, Text: text},
	})
}

func TestInitializeAndShutdown(t *testing.T) {
	responses, err := runSession(t,
		request(1, "initialize", initializeParams{}),
		notification("initialized", nil),
		request(2, "shutdown", nil),
		notification("exit", nil),
	)
	if !errors.Is(err, ErrExit) {
		t.Fatalf("err = %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("responses = %d", len(responses))
	}
	var init initializeResult
	if err := json.Unmarshal(responses[0].Result, &init); err != nil {
		t.Fatal(err)
	}
	if !init.Capabilities.HoverProvider || init.Capabilities.TextDocumentSync.Change != 2 {
		t.Fatalf("capabilities = %+v", init.Capabilities)
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	_, err := runSession(t, notification("exit", nil))
	if !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("err = %v", err)
	}
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	responses, err := runSession(t,
		openDoc("file:///d.md", "bad `tick\n"),
	)
	if err != nil {
		t.Fatal(err)
	}
	var publish *publishDiagnosticsParams
	for _, msg := range responses {
		if msg.Method == "textDocument/publishDiagnostics" {
			var p publishDiagnosticsParams
			if err := json.Unmarshal(msg.Params, &p); err != nil {
				t.Fatal(err)
			}
			publish = &p
		}
	}
	if publish == nil {
		t.Fatal("no publishDiagnostics notification")
	}
	if publish.URI != "file:///d.md" || len(publish.Diagnostics) == 0 {
		t.Fatalf("publish = %+v", publish)
	}
	d := publish.Diagnostics[0]
	if d.Source != "marco" || !strings.HasPrefix(d.Code, "MD") {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func TestIncrementalChangeAndHover(t *testing.T) {
	responses, err := runSession(t,
		openDoc("file:///d.md", "# title\n\npara\n"),
		notification("textDocument/didChange", didChangeTextDocumentParams{
			TextDocument: versionedTextDocumentIdentifier{URI: "file:///d.md", Version: 2},
			ContentChanges: []textDocumentContentChangeEvent{{
				Range: &lspRange{
					Start: position{Line: 2, Character: 0},
					End:   position{Line: 2, Character: 4},
				},
				Text: "body",
			}},
		}),
		request(7, "textDocument/hover", textDocumentPositionParams{
			TextDocument: textDocumentIdentifier{URI: "file:///d.md"},
			Position:     position{Line: 0, Character: 0},
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	var hovered *hover
	for _, msg := range responses {
		if string(msg.ID) == "7" {
			var h hover
			if err := json.Unmarshal(msg.Result, &h); err != nil {
				t.Fatal(err)
			}
			hovered = &h
		}
	}
	if hovered == nil {
		t.Fatal("no hover response")
	}
	if !strings.Contains(hovered.Contents.Value, "heading") {
		t.Fatalf("hover = %q", hovered.Contents.Value)
	}
}

func TestCompletionOnBlankLine(t *testing.T) {
	responses, err := runSession(t,
		openDoc("file:///d.md", "para\n\n"),
		request(3, "textDocument/completion", textDocumentPositionParams{
			TextDocument: textDocumentIdentifier{URI: "file:///d.md"},
			Position:     position{Line: 2, Character: 0},
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	var list *completionList
	for _, msg := range responses {
		if string(msg.ID) == "3" {
			var l completionList
			if err := json.Unmarshal(msg.Result, &l); err != nil {
				t.Fatal(err)
			}
			list = &l
		}
	}
	if list == nil || len(list.Items) == 0 {
		t.Fatal("no completion items")
	}
	found := false
	for _, item := range list.Items {
		if item.Label == "heading" && item.InsertText == "# " {
			found = true
		}
	}
	if !found {
		t.Fatalf("items = %+v", list.Items)
	}
}

func TestUnknownMethodGetsError(t *testing.T) {
	responses, err := runSession(t, request(9, "textDocument/rename", nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(responses) != 1 || responses[0].Error == nil || responses[0].Error.Code != -32601 {
		t.Fatalf("responses = %+v", responses)
	}
}

func TestPositionOffsetRoundTrip(t *testing.T) {
	fset := source.NewFileSet()
	id := fset.AddVirtual("t.md", []byte("ab\nзд\ncd\n"))
	f := fset.Get(id)

	// "з" and "д" are two bytes each but one UTF-16 unit.
	off := offsetForPositionInFile(f, position{Line: 1, Character: 2})
	if off != 7 {
		t.Fatalf("offset = %d", off)
	}
	pos := positionForOffsetInFile(f, off)
	if pos.Line != 1 || pos.Character != 2 {
		t.Fatalf("pos = %+v", pos)
	}
}
