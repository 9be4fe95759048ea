package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mgomes/vibequery/query"
	"github.com/segmentio/fasthash/fnv1a"
	"github.com/tevino/abool/v2"
)

var lspKeywords = []string{
	"return",
}

const (
	lspSeverityError   = 1
	lspSeverityWarning = 2

	lspErrInvalidRequest = -32600
	lspErrMethodNotFound = -32601
	lspErrInvalidParams  = -32602
)

type lspInboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type lspResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lspOutboundMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *json.RawMessage  `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  any               `json:"params,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *lspResponseError `json:"error,omitempty"`
}

type lspDidOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type lspDidChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspTextDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"position"`
}

// lspDocument is the last text seen for a URI. Diagnostics live in the
// server's cache under the text's fingerprint, so identical buffers share
// one analysis.
type lspDocument struct {
	text        string
	fingerprint uint64
}

type lspServer struct {
	reader   *bufio.Reader
	writer   *bufio.Writer
	engine   *query.Engine
	docs     map[string]*lspDocument
	analyses map[uint64][]map[string]any
	shutdown *abool.AtomicBool
}

func lspCommand(args []string) error {
	if len(args) > 0 {
		return errors.New("vq lsp: no arguments expected")
	}
	return runLSP(os.Stdin, os.Stdout)
}

func newLSPServer(in io.Reader, out io.Writer) *lspServer {
	return &lspServer{
		reader:   bufio.NewReader(in),
		writer:   bufio.NewWriter(out),
		engine:   query.MustNewEngine(query.Config{Output: io.Discard}),
		docs:     make(map[string]*lspDocument),
		analyses: make(map[uint64][]map[string]any),
		shutdown: abool.New(),
	}
}

func runLSP(in io.Reader, out io.Writer) error {
	return newLSPServer(in, out).serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readPayload()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var incoming lspInboundMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			continue
		}

		messages := s.handleMessage(incoming)
		for _, msg := range messages {
			if err := s.writePayload(msg); err != nil {
				return err
			}
		}

		if incoming.Method == "exit" {
			if !s.shutdown.IsSet() {
				return errors.New("vq lsp: exit before shutdown")
			}
			return nil
		}
	}
}

func (s *lspServer) handleMessage(incoming lspInboundMessage) []lspOutboundMessage {
	if s.shutdown.IsSet() && incoming.Method != "exit" {
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{
			errorResponse(incoming.ID, lspErrInvalidRequest, "server is shutting down"),
		}
	}

	switch incoming.Method {
	case "initialize":
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"capabilities": map[string]any{
						"textDocumentSync": 1,
						"hoverProvider":    true,
						"completionProvider": map[string]any{
							"resolveProvider": false,
						},
					},
					"serverInfo": map[string]any{
						"name": "vq",
					},
				},
			},
		}
	case "initialized":
		return nil
	case "shutdown":
		s.shutdown.Set()
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: nil}}
	case "exit":
		return nil
	case "textDocument/didOpen":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		return []lspOutboundMessage{
			s.update(params.TextDocument.URI, params.TextDocument.Text),
		}
	case "textDocument/didChange":
		var params lspDidChangeParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		if len(params.ContentChanges) == 0 {
			return nil
		}
		latest := params.ContentChanges[len(params.ContentChanges)-1].Text
		return []lspOutboundMessage{
			s.update(params.TextDocument.URI, latest),
		}
	case "textDocument/didClose":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		s.close(params.TextDocument.URI)
		return nil
	case "textDocument/completion":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		_ = json.Unmarshal(incoming.Params, &params)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"isIncomplete": false,
					"items":        s.completionItems(params.TextDocument.URI),
				},
			},
		}
	case "textDocument/hover":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return []lspOutboundMessage{
				errorResponse(incoming.ID, lspErrInvalidParams, "invalid hover params"),
			}
		}
		source := s.text(params.TextDocument.URI)
		word := wordAtPosition(source, params.Position.Line, params.Position.Character)
		if word == "" {
			return []lspOutboundMessage{
				{JSONRPC: "2.0", ID: incoming.ID, Result: nil},
			}
		}
		kind := s.classifyWord(word, source)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"contents": map[string]any{
						"kind":  "markdown",
						"value": fmt.Sprintf("`%s`\n\nvq %s", word, kind),
					},
				},
			},
		}
	default:
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{
			errorResponse(incoming.ID, lspErrMethodNotFound, "method not found"),
		}
	}
}

func errorResponse(id *json.RawMessage, code int, message string) lspOutboundMessage {
	return lspOutboundMessage{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &lspResponseError{Code: code, Message: message},
	}
}

func (s *lspServer) text(uri string) string {
	if doc, ok := s.docs[uri]; ok {
		return doc.text
	}
	return ""
}

// update stores text for uri and publishes its diagnostics. Text whose
// fingerprint was already analyzed, under any URI, reuses that result.
func (s *lspServer) update(uri, text string) lspOutboundMessage {
	fingerprint := fnv1a.HashString64(text)
	previous, hadPrevious := s.docs[uri]
	s.docs[uri] = &lspDocument{text: text, fingerprint: fingerprint}
	if hadPrevious && previous.fingerprint != fingerprint {
		s.release(previous.fingerprint)
	}

	diagnostics, ok := s.analyses[fingerprint]
	if !ok {
		diagnostics = diagnosticsForSource(s.engine, text)
		s.analyses[fingerprint] = diagnostics
	}
	return lspOutboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]any{
			"uri":         uri,
			"diagnostics": diagnostics,
		},
	}
}

func (s *lspServer) close(uri string) {
	doc, ok := s.docs[uri]
	if !ok {
		return
	}
	delete(s.docs, uri)
	s.release(doc.fingerprint)
}

// release drops the cached analysis for fingerprint once no open document
// carries it.
func (s *lspServer) release(fingerprint uint64) {
	for _, doc := range s.docs {
		if doc.fingerprint == fingerprint {
			return
		}
	}
	delete(s.analyses, fingerprint)
}

// diagnosticsForSource reports compile failures, or else lint warnings plus
// the first evaluation failure.
func diagnosticsForSource(engine *query.Engine, source string) []map[string]any {
	program, err := engine.Compile(source)
	if err != nil {
		return []map[string]any{errorDiagnostic(source, err)}
	}

	out := make([]map[string]any, 0)
	for _, warning := range analyzeProgram(program, builtinNames(engine)) {
		out = append(out, newDiagnostic(source, warning.Span, lspSeverityWarning, warning.Message))
	}

	exec := engine.NewExecution(query.CallOptions{Output: io.Discard})
	if _, err := exec.Run(context.Background(), program); err != nil && !errors.Is(err, query.ErrEmptyProgram) {
		out = append(out, errorDiagnostic(source, err))
	}
	return out
}

func errorDiagnostic(source string, err error) map[string]any {
	var qerr *query.Error
	if errors.As(err, &qerr) {
		message := qerr.Kind.Error()
		if qerr.Message != "" {
			message += ": " + qerr.Message
		}
		return newDiagnostic(source, qerr.Span, lspSeverityError, message)
	}
	return newDiagnostic(source, query.Span{}, lspSeverityError, err.Error())
}

func newDiagnostic(source string, span query.Span, severity int, message string) map[string]any {
	start := lspPosition(source, span.Lo)
	end := lspPosition(source, span.Hi)
	if span.Hi <= span.Lo {
		end["character"] = start["character"].(int) + 1
		end["line"] = start["line"]
	}
	return map[string]any{
		"range": map[string]any{
			"start": start,
			"end":   end,
		},
		"severity": severity,
		"source":   "vq",
		"message":  message,
	}
}

// lspPosition converts a byte offset into a zero-based line and UTF-16
// character offset.
func lspPosition(source string, offset int) map[string]any {
	pos := query.PositionOf(source, offset)
	lineStart := 0
	if idx := strings.LastIndexByte(source[:min(offset, len(source))], '\n'); idx >= 0 {
		lineStart = idx + 1
	}
	prefix := source[lineStart : lineStart+pos.Column-1]
	units := 0
	for _, r := range prefix {
		units += utf16.RuneLen(r)
	}
	return map[string]any{
		"line":      pos.Line - 1,
		"character": units,
	}
}

func (s *lspServer) completionItems(uri string) []map[string]any {
	seen := make(map[string]struct{})
	type candidate struct {
		label  string
		kind   int
		detail string
	}
	candidates := make([]candidate, 0)
	add := func(label string, kind int, detail string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		candidates = append(candidates, candidate{label: label, kind: kind, detail: detail})
	}

	for _, keyword := range lspKeywords {
		add(keyword, 14, "keyword")
	}
	for name := range s.engine.Builtins() {
		add(name, 3, "builtin")
	}
	for _, name := range assignedNames(s.text(uri)) {
		add(name, 6, "variable")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].label < candidates[j].label
	})
	items := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, map[string]any{
			"label":  c.label,
			"kind":   c.kind,
			"detail": c.detail,
		})
	}
	return items
}

// assignedNames lists the names assigned anywhere in source, or nothing if
// it does not parse.
func assignedNames(source string) []string {
	program, err := query.Parse(source)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	query.Inspect(program, func(n query.Node) bool {
		if assign, ok := n.(*query.AssignExpr); ok {
			if _, dup := seen[assign.Name]; !dup {
				seen[assign.Name] = struct{}{}
				names = append(names, assign.Name)
			}
		}
		return true
	})
	sort.Strings(names)
	return names
}

func (s *lspServer) classifyWord(word, source string) string {
	for _, keyword := range lspKeywords {
		if keyword == word {
			return "keyword"
		}
	}
	if _, ok := s.engine.Builtins()[word]; ok {
		return "builtin"
	}
	for _, name := range assignedNames(source) {
		if name == word {
			return "variable"
		}
	}
	return "symbol"
}

// wordAtPosition returns the identifier under a zero-based line and UTF-16
// character offset.
func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	runes := []rune(lines[line])
	if len(runes) == 0 {
		return ""
	}

	cursor := 0
	for units := 0; cursor < len(runes) && units < character; cursor++ {
		units += utf16.RuneLen(runes[cursor])
	}
	if cursor == len(runes) {
		cursor--
	}
	if !isWordRune(runes[cursor]) {
		if cursor > 0 && isWordRune(runes[cursor-1]) {
			cursor--
		} else {
			return ""
		}
	}

	start := cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func (s *lspServer) readPayload() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.EqualFold(name, "Content-Length") {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writePayload(msg lspOutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}
