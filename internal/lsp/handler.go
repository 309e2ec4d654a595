package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	deadlock "github.com/sasha-s/go-deadlock"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
	"boundedverify/internal/irtext"
	"boundedverify/internal/smt"
	"boundedverify/internal/verify"
)

// Define the set of supported semantic token types (as required by the LSP spec)
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"typeParameter",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
	"modifier",
}

// Define the set of supported semantic token modifiers
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
	"static",
	"deprecated",
	"abstract",
}

// BoundedVerifyHandler implements the LSP handlers for the IR text surface
// syntax: it parses a document, lowers it, and runs a panic check on every
// function it defines whenever the document opens or changes.
//
// deadlock.RWMutex replaces a bare sync.RWMutex so a lock-order mistake
// introduced while wiring the verifier into the handler surfaces as a
// readable cycle report instead of a silent hang.
type BoundedVerifyHandler struct {
	mu      deadlock.RWMutex
	content map[string]string
	modules map[string]*ir.Module

	Solver smt.Solver
	Cache  *verify.Cache
}

// NewBoundedVerifyHandler creates and returns a new handler instance.
func NewBoundedVerifyHandler(solver smt.Solver) *BoundedVerifyHandler {
	return &BoundedVerifyHandler{
		content: make(map[string]string),
		modules: make(map[string]*ir.Module),
		Solver:  solver,
		Cache:   verify.NewCache(),
	}
}

func (h *BoundedVerifyHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *BoundedVerifyHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("boundedverify LSP initialized")
	return nil
}

func (h *BoundedVerifyHandler) Shutdown(ctx *glsp.Context) error {
	log.Println("boundedverify LSP shutdown")
	return nil
}

func (h *BoundedVerifyHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened file: %s\n", params.TextDocument.URI)
	return h.verifyAndPublish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (h *BoundedVerifyHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("Closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)

	return nil
}

func (h *BoundedVerifyHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("Changed file: %s\n", params.TextDocument.URI)

	if len(params.ContentChanges) == 0 {
		return nil
	}
	// TextDocumentSyncKindFull: the last change event carries the full text.
	change := params.ContentChanges[len(params.ContentChanges)-1]
	full, ok := change.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}

	return h.verifyAndPublish(ctx, params.TextDocument.URI, full.Text)
}

func (h *BoundedVerifyHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        []protocol.CompletionItem{},
	}, nil
}

func (h *BoundedVerifyHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.RLock()
	source := h.content[path]
	h.mu.RUnlock()

	file, err := irtext.ParseString(path, source)
	if err != nil {
		return &protocol.SemanticTokens{}, nil
	}

	tokens := collectSemanticTokens(file)

	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

// verifyAndPublish parses and lowers source, runs a panic check over every
// function it declares, and publishes the combined diagnostics.
func (h *BoundedVerifyHandler) verifyAndPublish(ctx *glsp.Context, uri protocol.DocumentUri, source string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	file, parseErr := irtext.ParseString(path, source)
	if parseErr != nil {
		sendDiagnosticNotification(ctx, uri, ConvertParseError(parseErr))
		return nil
	}

	mod, err := irtext.Lower(filepath.Base(path), file)
	if err != nil {
		sendDiagnosticNotification(ctx, uri, ConvertParseError(err))
		return nil
	}

	h.mu.Lock()
	h.content[path] = source
	h.modules[path] = mod
	h.mu.Unlock()

	var diags []protocol.Diagnostic
	for i, fn := range mod.Functions {
		line := 0
		if i < len(file.Functions) {
			line = file.Functions[i].Pos.Line - 1
		}
		report, runErr := verify.RunTargetCached(context.Background(), mod, fn.Name, h.Solver, diagnostics.Discard, h.Cache)
		if runErr != nil {
			log.Printf("verify %q: %v", fn.Name, runErr)
			continue
		}
		diags = append(diags, ConvertVerifyReport(fn.Name, line, report)...)
	}

	sendDiagnosticNotification(ctx, uri, diags)
	return nil
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	diagnosticsJSON, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		log.Println("Failed to marshal diagnostics:", err)
		return
	}
	log.Println("Sending diagnostics:", string(diagnosticsJSON))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
