// Package lsp serves lint findings to editors over the language server
// protocol.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/heathj/htmllint/engine"
	"github.com/heathj/htmllint/report"
)

const lsName = "htmllint"

type Server struct {
	engine  *engine.Engine
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	mu        sync.Mutex
	documents map[protocol.DocumentUri]string
}

// NewServer creates a server linting open documents with e.
func NewServer(e *engine.Engine, version string) *Server {
	ls := &Server{
		engine:    e,
		version:   version,
		log:       commonlog.GetLogger(lsName),
		documents: map[protocol.DocumentUri]string{},
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.log.Infof("%s %s ready, %d elements known", lsName, ls.version, ls.engine.Table().Len())
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(params.TextDocument.URI, params.TextDocument.Text)
	ls.publish(ctx, params.TextDocument.URI)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.update(params.TextDocument.URI, textChange.Text)
		ls.publish(ctx, params.TextDocument.URI)
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.documents, params.TextDocument.URI)
	ls.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(params.TextDocument.URI, *params.Text)
	}
	ls.publish(ctx, params.TextDocument.URI)
	return nil
}

func (ls *Server) update(uri protocol.DocumentUri, text string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.documents[uri] = text
}

func (ls *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri) {
	ls.mu.Lock()
	text, ok := ls.documents[uri]
	ls.mu.Unlock()
	if !ok {
		return
	}

	diagnostics, err := ls.diagnose(uri, text)
	if err != nil {
		ls.log.Errorf("linting %s: %s", uri, err)
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose lints the text of a document.
func (ls *Server) diagnose(uri protocol.DocumentUri, text string) ([]protocol.Diagnostic, error) {
	rep, err := ls.engine.LintString(text, uriToPath(uri))
	if err != nil {
		return nil, err
	}
	ls.log.Debugf("%s: %d errors, %d warnings", uri, rep.ErrorCount(), rep.WarningCount())
	return toDiagnostics(text, rep.Messages()), nil
}

func toDiagnostics(text string, messages []report.Message) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(messages))
	for _, m := range messages {
		severity := protocol.DiagnosticSeverityWarning
		if m.Severity == report.Error {
			severity = protocol.DiagnosticSeverityError
		}
		source := lsName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: positionAt(text, m.Location.Offset),
				End:   positionAt(text, m.Location.End()),
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: m.RuleID},
			Source:   &source,
			Message:  m.Message,
		})
	}
	return diagnostics
}

// positionAt converts a byte offset into a protocol position, which counts
// characters in UTF-16 code units.
func positionAt(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	var line, character protocol.UInteger
	for i, r := range text {
		if i >= offset {
			break
		}
		if r == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			continue
		}
		if r == '\n' || r == '\r' {
			line++
			character = 0
			continue
		}
		if r == utf8.RuneError {
			character++
			continue
		}
		character += protocol.UInteger(utf16.RuneLen(r))
	}
	return protocol.Position{Line: line, Character: character}
}

func uriToPath(uri protocol.DocumentUri) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err == nil {
			return filepath.Clean(parsed.Path)
		}
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
