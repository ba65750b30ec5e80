package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"notesummary/internal/notes"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// NewServer creates an MCP server with tools for note operations
func NewServer(svc *notes.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Note Summarizer",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Tool: create_note - Store a note and summarize it
	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Save a free-form note. A local language model generates a short title and summary before the note is stored. This can take a while on the first call if the model has to be downloaded."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Note text (1-10000 characters)"),
			),
		),
		handleCreateNote(svc),
	)

	// Tool: list_notes - Most recent notes
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List stored notes, newest first, with their generated titles and summaries."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 20, max: 200)"),
			),
		),
		handleListNotes(svc),
	)

	// Tool: get_note - Get a specific note by ID
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a specific note by its ID, including the original content."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID (UUID)"),
			),
		),
		handleGetNote(svc),
	)

	// Tool: model_status - Backend health
	s.AddTool(
		mcp.NewTool("model_status",
			mcp.WithDescription("Report whether the language model backend is reachable and which model is configured."),
		),
		handleModelStatus(svc),
	)

	return s
}

// NoteResult represents a note in tool responses
type NoteResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// StatusResult is the model_status payload.
type StatusResult struct {
	Ollama string `json:"ollama"`
	Model  string `json:"model"`
	Notes  int    `json:"notes"`
}

func handleCreateNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		note, err := svc.Create(ctx, notes.CreateNoteInput{Content: content})
		if err != nil {
			var verr *notes.ValidationError
			if errors.As(err, &verr) {
				return mcp.NewToolResultError(verr.Message), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
		}

		return jsonResult(noteToResult(*note, true))
	}
}

func handleListNotes(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		noteList, err := svc.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}
		if len(noteList) > limit {
			noteList = noteList[:limit]
		}

		results := make([]NoteResult, len(noteList))
		for i, n := range noteList {
			results[i] = noteToResult(n, false)
		}
		return jsonResult(results)
	}
}

func handleGetNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := svc.GetByID(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}

		return jsonResult(noteToResult(*note, true))
	}
}

func handleModelStatus(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state := "disconnected"
		if svc.BackendHealthy(ctx) {
			state = "connected"
		}
		return jsonResult(StatusResult{Ollama: state, Model: svc.Model(), Notes: svc.Count()})
	}
}

// Helper functions

func noteToResult(n notes.Note, withContent bool) NoteResult {
	r := NoteResult{
		ID:        n.ID,
		Title:     n.Title,
		Summary:   n.Summary,
		CreatedAt: n.CreatedAt,
	}
	if withContent {
		r.Content = n.Content
	}
	return r
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
