// Command dialogue-server is an MCP stdio server exposing the dialogue
// transformation tools used by the dialogue agent: yell and sarcasm.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	s := server.NewMCPServer("Dialogue", "0.1.0", server.WithToolCapabilities(false))

	yellTool := mcp.NewTool("yell",
		mcp.WithDescription("Turns a phrase into a loud shout as if the person is yelling."),
		mcp.WithString("phrase",
			mcp.Required(),
			mcp.Description("The phrase to transform"),
		),
	)
	s.AddTool(yellTool, handlePhrase(yell))

	sarcasmTool := mcp.NewTool("sarcasm",
		mcp.WithDescription("Turns a phrase into a sarcastic remark."),
		mcp.WithString("phrase",
			mcp.Required(),
			mcp.Description("The phrase to transform"),
		),
	)
	s.AddTool(sarcasmTool, handlePhrase(sarcasm))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintln(os.Stderr, "dialogue-server:", err)
		os.Exit(1)
	}
}

func handlePhrase(transform func(string) string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		phrase, err := req.RequireString("phrase")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(transform(phrase)), nil
	}
}

func yell(phrase string) string {
	return strings.ToUpper(phrase) + "!!!"
}

// sarcasm alternates character case, upper on even positions.
func sarcasm(phrase string) string {
	var b strings.Builder
	for i, r := range []rune(phrase) {
		if i%2 == 0 {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String() + " \U0001F643"
}
