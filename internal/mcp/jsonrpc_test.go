package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/runner"
)

func newEmptyServer() *Server {
	return NewServer(runner.New(), nil, "test")
}

// exchange feeds request lines to s and returns the response lines.
func exchange(t *testing.T, s *Server, lines ...string) []string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestRun_Initialize(t *testing.T) {
	resp := exchange(t, newEmptyServer(), `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if len(resp) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resp))
	}

	var parsed struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp[0]), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp[0])
	}
	if parsed.Result.ProtocolVersion != protocolVersion {
		t.Errorf("expected protocolVersion %q, got %q", protocolVersion, parsed.Result.ProtocolVersion)
	}
	if parsed.Result.ServerInfo.Name != "insightwatch" || parsed.Result.ServerInfo.Version != "test" {
		t.Errorf("unexpected serverInfo: %+v", parsed.Result.ServerInfo)
	}
}

func TestRun_ToolsList(t *testing.T) {
	s := newEmptyServer()
	s.registerTool(toolDef{
		Name:        "test_tool",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return map[string]string{"ok": "true"}, nil
		},
	})

	resp := exchange(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	var parsed struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp[0]), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	var names []string
	for _, tool := range parsed.Result.Tools {
		names = append(names, tool.Name)
	}
	want := "list_domains,generate_insights,test_tool"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("expected tools %s, got %s", want, got)
	}
}

func TestRun_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		line string
		code int
	}{
		{"unknown method", `{"jsonrpc":"2.0","id":3,"method":"nonexistent/method"}`, codeMethodNotFound},
		{"parse error", `{not json`, codeParseError},
		{"bad params", `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":"x"}`, codeInvalidParams},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := exchange(t, newEmptyServer(), tc.line)
			var parsed struct {
				Error *jsonrpcError `json:"error"`
			}
			if err := json.Unmarshal([]byte(resp[0]), &parsed); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if parsed.Error == nil || parsed.Error.Code != tc.code {
				t.Errorf("expected error code %d, got %+v", tc.code, parsed.Error)
			}
		})
	}
}

func TestRun_Notification(t *testing.T) {
	resp := exchange(t, newEmptyServer(),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	)
	if len(resp) != 1 {
		t.Fatalf("expected only the ping response, got %d: %v", len(resp), resp)
	}
	if !strings.Contains(resp[0], `"id":5`) {
		t.Errorf("expected ping response, got %s", resp[0])
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	done := make(chan error, 1)
	go func() { done <- newEmptyServer().Run(ctx, pr, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after context cancel")
	}
}

func TestRun_EOFClean(t *testing.T) {
	if resp := exchange(t, newEmptyServer()); resp != nil {
		t.Errorf("expected no responses, got %v", resp)
	}
}
