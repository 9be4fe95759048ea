package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/mgomes/vibequery/query"
	"github.com/segmentio/fasthash/fnv1a"
)

func TestRunCLIStartsLSPAndExitsOnEOF(t *testing.T) {
	origStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close write pipe: %v", err)
	}
	os.Stdin = r
	defer func() {
		os.Stdin = origStdin
		_ = r.Close()
	}()

	if err := runCLI([]string{"vq", "lsp"}); err != nil {
		t.Fatalf("runCLI lsp failed: %v", err)
	}
}

func TestServeRoundTrip(t *testing.T) {
	var in bytes.Buffer
	writeFrame(t, &in, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	writeFrame(t, &in, `{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///a.vq","text":"x = 1 / 0;"}}}`)
	writeFrame(t, &in, `{"jsonrpc":"2.0","id":2,"method":"shutdown"}`)
	writeFrame(t, &in, `{"jsonrpc":"2.0","id":3,"method":"textDocument/completion","params":{}}`)
	writeFrame(t, &in, `{"jsonrpc":"2.0","method":"exit"}`)

	var out bytes.Buffer
	if err := runLSP(&in, &out); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	responses := readFrames(t, out.String())
	if len(responses) != 4 {
		t.Fatalf("expected 4 outbound messages, got %d: %s", len(responses), out.String())
	}
	if _, ok := responses[0]["result"].(map[string]any)["capabilities"]; !ok {
		t.Fatalf("expected initialize capabilities, got %v", responses[0])
	}
	if responses[1]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("expected diagnostics notification, got %v", responses[1])
	}
	if responses[2]["id"] != float64(2) {
		t.Fatalf("expected shutdown response, got %v", responses[2])
	}
	errPayload, ok := responses[3]["error"].(map[string]any)
	if !ok || errPayload["code"] != float64(lspErrInvalidRequest) {
		t.Fatalf("expected requests after shutdown to be rejected, got %v", responses[3])
	}
}

func TestServeExitWithoutShutdownFails(t *testing.T) {
	var in bytes.Buffer
	writeFrame(t, &in, `{"jsonrpc":"2.0","method":"exit"}`)
	if err := runLSP(&in, io.Discard); err == nil {
		t.Fatalf("expected exit before shutdown to fail")
	}
}

func TestDiagnosticsForSourceWithoutErrors(t *testing.T) {
	engine := query.MustNewEngine(query.Config{Output: io.Discard})
	diags := diagnosticsForSource(engine, "x = 1;\nprint(x);\n")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if diags := diagnosticsForSource(engine, ""); len(diags) != 0 {
		t.Fatalf("empty documents should not be diagnosed, got %v", diags)
	}
}

func TestDiagnosticsForSourceWithParseError(t *testing.T) {
	engine := query.MustNewEngine(query.Config{Output: io.Discard})
	diags := diagnosticsForSource(engine, "x = 1;\ny = (2;\n")
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	first := diags[0]
	if first["severity"] != lspSeverityError {
		t.Fatalf("expected severity 1, got %#v", first["severity"])
	}
	message, ok := first["message"].(string)
	if !ok || !strings.HasPrefix(message, `parse error: expected ")"`) {
		t.Fatalf("unexpected diagnostic message %#v", first["message"])
	}
	start := first["range"].(map[string]any)["start"].(map[string]any)
	if start["line"] != 1 || start["character"] != 6 {
		t.Fatalf("unexpected diagnostic start %v", start)
	}
}

func TestDiagnosticsForSourceWithRuntimeErrorAndWarnings(t *testing.T) {
	engine := query.MustNewEngine(query.Config{Output: io.Discard})
	diags := diagnosticsForSource(engine, "y = 2;\nmissing;\n")
	if len(diags) != 3 {
		t.Fatalf("expected two lint warnings plus a runtime error, got %v", diags)
	}
	for _, diag := range diags[:2] {
		if diag["severity"] != lspSeverityWarning {
			t.Fatalf("expected warnings first, got %v", diag)
		}
	}
	last := diags[2]
	if last["severity"] != lspSeverityError || !strings.HasPrefix(last["message"].(string), "variable not defined") {
		t.Fatalf("unexpected runtime diagnostic %v", last)
	}
}

func TestLSPPositionCountsUTF16Units(t *testing.T) {
	source := "s = \"😀\"; 1 / 0;"
	offset := strings.Index(source, "0;")
	pos := lspPosition(source, offset)
	if pos["line"] != 0 || pos["character"] != 14 {
		t.Fatalf("unexpected position %v", pos)
	}
}

func TestUpdateSharesAnalysesByFingerprint(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	server.update("file:///a.vq", "x = ;")
	server.update("file:///b.vq", "x = ;")
	if len(server.analyses) != 1 {
		t.Fatalf("expected identical text to share one analysis, got %d", len(server.analyses))
	}

	server.update("file:///a.vq", "x = 1;")
	if len(server.analyses) != 2 {
		t.Fatalf("expected changed text to be analyzed, got %d analyses", len(server.analyses))
	}
	server.close("file:///b.vq")
	if len(server.analyses) != 1 {
		t.Fatalf("expected closing the last holder to drop its analysis, got %d", len(server.analyses))
	}
	if _, ok := server.analyses[fnv1a.HashString64("x = 1;")]; !ok {
		t.Fatalf("expected the open document's analysis to survive")
	}
}

func TestUpdatePublishesCachedAnalysis(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	cached := []map[string]any{{"message": "cached"}}
	server.analyses[fnv1a.HashString64("x = ;")] = cached

	msg := server.update("file:///a.vq", "x = ;")
	params, ok := msg.Params.(map[string]any)
	if !ok {
		t.Fatalf("unexpected params %#v", msg.Params)
	}
	diagnostics, ok := params["diagnostics"].([]map[string]any)
	if !ok || len(diagnostics) != 1 || diagnostics[0]["message"] != "cached" {
		t.Fatalf("expected the cached analysis to be published, got %#v", params["diagnostics"])
	}
}

func TestCompletionItemsAreSortedAndCategorized(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	server.update("file:///a.vq", "total = 1;\n")
	items := server.completionItems("file:///a.vq")
	if len(items) == 0 {
		t.Fatalf("expected completion items")
	}

	labels := make([]string, 0, len(items))
	for _, item := range items {
		label, ok := item["label"].(string)
		if !ok {
			t.Fatalf("unexpected completion label: %#v", item["label"])
		}
		labels = append(labels, label)
	}
	if !slices.IsSorted(labels) {
		t.Fatalf("expected sorted completion labels, got %v", labels)
	}

	keyword := findCompletionItem(t, items, "return")
	if keyword["detail"] != "keyword" || keyword["kind"] != 14 {
		t.Fatalf("unexpected keyword item %v", keyword)
	}
	builtin := findCompletionItem(t, items, "print")
	if builtin["detail"] != "builtin" || builtin["kind"] != 3 {
		t.Fatalf("unexpected builtin item %v", builtin)
	}
	variable := findCompletionItem(t, items, "total")
	if variable["detail"] != "variable" || variable["kind"] != 6 {
		t.Fatalf("unexpected variable item %v", variable)
	}
}

func TestHandleMessageDidOpenPublishesDiagnostics(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	params := map[string]any{
		"textDocument": map[string]any{
			"uri":  "file:///tmp/test.vq",
			"text": "x = (1;\n",
		},
	}
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}

	messages := server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didOpen",
		Params:  payload,
	})
	if len(messages) != 1 {
		t.Fatalf("expected one publishDiagnostics notification, got %d", len(messages))
	}
	if messages[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("unexpected method: %q", messages[0].Method)
	}
	paramsMap, ok := messages[0].Params.(map[string]any)
	if !ok {
		t.Fatalf("unexpected params payload: %#v", messages[0].Params)
	}
	diags, ok := paramsMap["diagnostics"].([]map[string]any)
	if !ok {
		t.Fatalf("unexpected diagnostics payload: %#v", paramsMap["diagnostics"])
	}
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics for invalid source")
	}
}

func TestHandleMessageHoverClassifiesWords(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	server.update("file:///tmp/test.vq", "count = 1;\nprint(count);\n")

	cases := []struct {
		line      int
		character int
		want      string
	}{
		{1, 2, "vq builtin"},
		{1, 8, "vq variable"},
		{0, 0, "vq variable"},
	}
	for _, tc := range cases {
		params := map[string]any{
			"textDocument": map[string]any{"uri": "file:///tmp/test.vq"},
			"position":     map[string]any{"line": tc.line, "character": tc.character},
		}
		payload, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		messages := server.handleMessage(lspInboundMessage{
			JSONRPC: "2.0",
			ID:      rawID("1"),
			Method:  "textDocument/hover",
			Params:  payload,
		})
		if len(messages) != 1 {
			t.Fatalf("expected one response, got %d", len(messages))
		}
		result, ok := messages[0].Result.(map[string]any)
		if !ok {
			t.Fatalf("unexpected hover result: %#v", messages[0].Result)
		}
		value := result["contents"].(map[string]any)["value"].(string)
		if !strings.Contains(value, tc.want) {
			t.Fatalf("hover at %d:%d: expected %q, got %q", tc.line, tc.character, tc.want, value)
		}
	}
}

func TestWordAtPosition(t *testing.T) {
	source := "x = 1;\nprint(total);\n"
	if word := wordAtPosition(source, 1, 8); word != "total" {
		t.Fatalf("expected total, got %q", word)
	}
	if word := wordAtPosition(source, 1, 11); word != "total" {
		t.Fatalf("expected total just after the word, got %q", word)
	}
	if word := wordAtPosition(source, 5, 0); word != "" {
		t.Fatalf("expected no word past the end, got %q", word)
	}
}

func TestWordAtPositionUsesUTF16CharacterOffsets(t *testing.T) {
	source := "\"😀😀\" x y\n"
	word := wordAtPosition(source, 0, 7)
	if word != "x" {
		t.Fatalf("expected x, got %q", word)
	}
}

func rawID(value string) *json.RawMessage {
	raw := json.RawMessage(value)
	return &raw
}

func findCompletionItem(t *testing.T, items []map[string]any, label string) map[string]any {
	t.Helper()
	for _, item := range items {
		itemLabel, ok := item["label"].(string)
		if ok && itemLabel == label {
			return item
		}
	}
	t.Fatalf("missing completion item %q", label)
	return nil
}

func writeFrame(t *testing.T, w io.Writer, body string) {
	t.Helper()
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n%s", len(body), body); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrames(t *testing.T, stream string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for stream != "" {
		header, rest, ok := strings.Cut(stream, "\r\n\r\n")
		if !ok {
			t.Fatalf("malformed frame stream %q", stream)
		}
		var length int
		if _, err := fmt.Sscanf(header, "Content-Length: %d", &length); err != nil {
			t.Fatalf("parse header %q: %v", header, err)
		}
		var msg map[string]any
		if err := json.Unmarshal([]byte(rest[:length]), &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		out = append(out, msg)
		stream = rest[length:]
	}
	return out
}
