/*
Command guardianls is the Language Server Protocol (LSP) server for
Guardián command files.

# Installation

	go install guardian.dev/guardian/cmd/guardianls@latest

# Supported Features

  - Diagnostics: unknown commands, with a "did you mean" hint; with
    lsp.strict set, also missing, invalid and repeated keyword values
  - Completion: commands, parameter keywords, values and snippets
  - Hover: help for the command of the hovered line, followed by the
    comment written above it
  - Semantic Tokens: keywords, particles, addresses, numbers and strings

# Editor Setup

guardianls communicates over stdin/stdout. The --stdio flag is accepted
and ignored for clients that always pass it. Logs go to stderr, or to the
file named by log.file in the configuration.

Using nvim-lspconfig (Neovim 0.5+), add to your init.lua:

	vim.api.nvim_create_autocmd({'BufRead', 'BufNewFile'}, {
		pattern = '*.gd',
		callback = function()
			vim.lsp.start({
				name = 'guardianls',
				cmd = {'guardianls'},
			})
		end,
	})

Using eglot:

	(add-to-list 'eglot-server-programs '(guardian-mode . ("guardianls")))

# Helix

Add to languages.toml:

	[[language]]
	name = "guardian"
	scope = "source.guardian"
	file-types = ["gd"]
	roots = []
	language-servers = ["guardianls"]

	[language-server.guardianls]
	command = "guardianls"
*/
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"guardian.dev/guardian"
	"guardian.dev/guardian/internal/config"
	"guardian.dev/guardian/internal/logging"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var e exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		fmt.Fprintf(os.Stderr, "guardianls: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		stdio      bool
	)
	cmd := &cobra.Command{
		Use:           "guardianls",
		Short:         "Language server for Guardián command files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log, verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			lex, err := cfg.OpenLexicon()
			if err != nil {
				logger.Error("lexicon", zap.Error(err))
				return err
			}
			s := newServer(cmd.InOrStdin(), cmd.OutOrStdout(), lex, cfg.LSP, logger)
			return s.run()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "configuration file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every message")
	cmd.Flags().BoolVar(&stdio, "stdio", true, "use stdin and stdout (always on)")
	return cmd
}

// Server

type server struct {
	r        *bufio.Reader
	w        *bufio.Writer
	lex      *guardian.Lexicon
	log      *zap.Logger
	strict   bool
	source   string
	docs     map[protocol.DocumentURI]*document
	shutdown bool
}

func newServer(r io.Reader, w io.Writer, lex *guardian.Lexicon, cfg config.LSPConfig, log *zap.Logger) *server {
	return &server{
		r:      bufio.NewReader(r),
		w:      bufio.NewWriter(w),
		lex:    lex,
		log:    log,
		strict: cfg.Strict,
		source: cfg.Source,
		docs:   make(map[protocol.DocumentURI]*document),
	}
}

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func (s *server) run() error {
	for {
		data, err := s.readMessage()
		if errors.Is(err, io.EOF) {
			s.log.Info("client closed the connection")
			return nil
		}
		if err != nil {
			return err
		}
		var msg request
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("malformed message", zap.Error(err))
			if err := s.sendError(nil, codeParseError, err.Error()); err != nil {
				return err
			}
			continue
		}
		s.log.Debug("message", zap.String("method", msg.Method), zap.ByteString("id", msg.ID))
		if err := s.dispatch(&msg); err != nil {
			return err
		}
	}
}

func (s *server) dispatch(msg *request) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit()
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokens(msg)
	case "$/cancelRequest", "$/setTrace", "workspace/didChangeConfiguration":
		return nil
	default:
		if msg.ID != nil {
			return s.sendError(msg.ID, codeMethodNotFound, fmt.Sprintf("unsupported method %q", msg.Method))
		}
		return nil
	}
}

// Handlers

// semanticTokensOptions is sent as the semanticTokensProvider capability.
type semanticTokensOptions struct {
	Legend protocol.SemanticTokensLegend `json:"legend"`
	Full   bool                          `json:"full"`
}

func (s *server) handleInitialize(msg *request) error {
	var p protocol.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, err.Error())
		}
	}
	if p.ClientInfo != nil {
		s.log.Info("initialize",
			zap.String("client", p.ClientInfo.Name),
			zap.String("version", p.ClientInfo.Version))
	}
	return s.reply(msg.ID, protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{" ", ":"},
			},
			HoverProvider: true,
			SemanticTokensProvider: semanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     tokenLegend,
					TokenModifiers: []protocol.SemanticTokenModifiers{},
				},
				Full: true,
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: "guardianls"},
	})
}

func (s *server) handleShutdown(msg *request) error {
	s.shutdown = true
	return s.reply(msg.ID, nil)
}

func (s *server) handleExit() error {
	if s.shutdown {
		return exitError{0}
	}
	return exitError{1}
}

func (s *server) handleDidOpen(msg *request) error {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := newDocument(s.lex, p.TextDocument.URI, p.TextDocument.Text, s.strict)
	s.docs[p.TextDocument.URI] = doc
	s.log.Debug("open", zap.String("uri", string(p.TextDocument.URI)), zap.Int("lines", len(doc.lines)))
	return s.publishDiagnostics(doc)
}

func (s *server) handleDidChange(msg *request) error {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil || len(p.ContentChanges) == 0 {
		return nil
	}
	doc.setText(p.ContentChanges[len(p.ContentChanges)-1].Text)
	return s.publishDiagnostics(doc)
}

func (s *server) handleDidClose(msg *request) error {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	delete(s.docs, p.TextDocument.URI)
	return nil
}

var itemKinds = map[guardian.Kind]protocol.CompletionItemKind{
	guardian.KindCommand:   protocol.CompletionItemKindKeyword,
	guardian.KindParameter: protocol.CompletionItemKindProperty,
	guardian.KindValue:     protocol.CompletionItemKindValue,
	guardian.KindSnippet:   protocol.CompletionItemKindSnippet,
}

func (s *server) handleCompletion(msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p protocol.CompletionParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	list := protocol.CompletionList{IsIncomplete: true, Items: []protocol.CompletionItem{}}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return s.reply(msg.ID, list)
	}

	// Clients without completion context only ask on explicit request.
	mode := guardian.Forced
	if p.Context != nil && p.Context.TriggerKind != protocol.CompletionTriggerKindInvoked {
		mode = guardian.Typing
	}
	offset := doc.offset(p.Position)
	ctx := guardian.ResolveContext(doc.text, offset)
	edit := protocol.Range{
		Start: doc.position(ctx.ReplaceStart()),
		End:   doc.position(ctx.Offset),
	}
	for i, sg := range s.lex.Complete(doc.text, offset, mode) {
		list.Items = append(list.Items, protocol.CompletionItem{
			Label:            sg.Label,
			Kind:             itemKinds[sg.Kind],
			Detail:           sg.Description,
			Documentation:    sg.Syntax,
			SortText:         fmt.Sprintf("%02d", i),
			InsertTextFormat: protocol.InsertTextFormatPlainText,
			TextEdit:         &protocol.TextEdit{Range: edit, NewText: sg.InsertText},
		})
	}
	s.log.Debug("completion",
		zap.Stringer("mode", mode),
		zap.Int("offset", offset),
		zap.Int("items", len(list.Items)))
	return s.reply(msg.ID, list)
}

func (s *server) handleHover(msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p protocol.HoverParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return s.reply(msg.ID, nil)
	}
	line := int(p.Position.Line)
	if line >= len(doc.lines) {
		return s.reply(msg.ID, nil)
	}
	// Help depends on the whole line, not on where in it the cursor is.
	end := doc.starts[line] + len(strings.TrimRight(doc.lines[line], "\r"))
	h, ok := s.lex.Help(guardian.ResolveContext(doc.text, end))
	if !ok {
		return s.reply(msg.ID, nil)
	}
	value := h.Markdown()
	if c := doc.comment(line); c != "" {
		value += "\n---\n\n" + c + "\n"
	}
	return s.reply(msg.ID, protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: value},
	})
}

func (s *server) handleSemanticTokens(msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p protocol.SemanticTokensParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	var data []uint32
	if doc := s.docs[p.TextDocument.URI]; doc != nil {
		data = doc.semanticTokens()
	}
	if data == nil {
		data = []uint32{}
	}
	return s.reply(msg.ID, protocol.SemanticTokens{Data: data})
}

func (s *server) publishDiagnostics(doc *document) error {
	diags := make([]protocol.Diagnostic, len(doc.diags))
	for i, d := range doc.diags {
		sev := protocol.DiagnosticSeverityWarning
		if d.Severity == guardian.SeverityError {
			sev = protocol.DiagnosticSeverityError
		}
		msg := d.Message
		if d.Hint != "" {
			msg += " (" + d.Hint + ")"
		}
		diags[i] = protocol.Diagnostic{
			Range:    doc.diagnosticRange(d),
			Severity: sev,
			Code:     d.Code,
			Source:   s.source,
			Message:  msg,
		}
	}
	return s.notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         doc.uri,
		Diagnostics: diags,
	})
}

// Protocol I/O

func (s *server) readMessage() ([]byte, error) {
	var contentLen int
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(k), "content-length") {
			contentLen, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}
	if contentLen == 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}
	data := make([]byte, contentLen)
	_, err := io.ReadFull(s.r, data)
	return data, err
}

func (s *server) writeMessage(data []byte) error {
	fmt.Fprintf(s.w, "Content-Length: %d\r\n\r\n", len(data))
	s.w.Write(data)
	return s.w.Flush()
}

func (s *server) reply(id json.RawMessage, result any) error {
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *server) sendError(id json.RawMessage, code int, message string) error {
	if id == nil {
		id = json.RawMessage("null")
	}
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Error   responseError   `json:"error"`
	}{JSONRPC: "2.0", ID: id, Error: responseError{code, message}})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

func (s *server) notify(method string, params any) error {
	data, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}
