package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ShellTool runs a shell command and captures combined output.
type ShellTool struct {
	WorkDir string
	Timeout time.Duration
}

// Name implements the Tool interface.
func (t *ShellTool) Name() string { return "shell" }

// Definition implements the Tool interface.
func (t *ShellTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "shell",
		Description: "Run a shell command and return its combined stdout and stderr.",
		Category:    CategoryCommand,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"command": {Type: "string", Description: "The command to run."},
			},
			Required: []string{"command"},
		},
	}
}

// Exec implements the Tool interface.
func (t *ShellTool) Exec(ctx context.Context, args map[string]any) (*ToolResult, error) {
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return Fail("command cannot be empty"), nil
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = t.WorkDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Fail(fmt.Sprintf("command failed: %v\n%s", err, output)), nil
	}
	return OK(string(output)), nil
}

// ReadFileTool reads a file from disk.
type ReadFileTool struct{}

// Name implements the Tool interface.
func (t *ReadFileTool) Name() string { return "read_file" }

// Definition implements the Tool interface.
func (t *ReadFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a file.",
		Category:    CategoryFileRead,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {Type: "string", Description: "Path of the file to read."},
			},
			Required: []string{"path"},
		},
	}
}

// Exec implements the Tool interface.
func (t *ReadFileTool) Exec(_ context.Context, args map[string]any) (*ToolResult, error) {
	path, _ := args["path"].(string)
	data, err := os.ReadFile(path)
	if err != nil {
		return Fail(fmt.Sprintf("failed to read %s: %v", path, err)), nil
	}
	return OK(string(data)), nil
}

// WriteFileTool writes content to a file.
type WriteFileTool struct{}

// Name implements the Tool interface.
func (t *WriteFileTool) Name() string { return "write_file" }

// Definition implements the Tool interface.
func (t *WriteFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "write_file",
		Description: "Write content to a file, replacing it if it exists.",
		Category:    CategoryFileWrite,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path":    {Type: "string", Description: "Path of the file to write."},
				"content": {Type: "string", Description: "Content to write."},
			},
			Required: []string{"path", "content"},
		},
	}
}

// Exec implements the Tool interface.
func (t *WriteFileTool) Exec(_ context.Context, args map[string]any) (*ToolResult, error) {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return Fail(fmt.Sprintf("failed to write %s: %v", path, err)), nil
	}
	return OK(fmt.Sprintf("wrote %d bytes to %s", len(content), path)), nil
}

// HTTPGetTool fetches a URL.
type HTTPGetTool struct {
	Client *http.Client
}

// Name implements the Tool interface.
func (t *HTTPGetTool) Name() string { return "http_get" }

// Definition implements the Tool interface.
func (t *HTTPGetTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "http_get",
		Description: "Fetch a URL with an HTTP GET request and return the body.",
		Category:    CategoryNetwork,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "The URL to fetch."},
			},
			Required: []string{"url"},
		},
	}
}

// maxFetchBytes bounds the response body added to context.
const maxFetchBytes = 1 << 20

// Exec implements the Tool interface.
func (t *HTTPGetTool) Exec(ctx context.Context, args map[string]any) (*ToolResult, error) {
	rawURL, _ := args["url"].(string)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Fail(fmt.Sprintf("invalid url %s: %v", rawURL, err)), nil
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Fail(fmt.Sprintf("request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Fail(fmt.Sprintf("failed to read response body: %v", err)), nil
	}
	if resp.StatusCode >= 400 {
		return Fail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, body)), nil
	}
	return OK(string(body)), nil
}
