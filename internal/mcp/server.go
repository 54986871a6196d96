package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/coachd/learning-coach-mcp/internal/digest"
	"github.com/coachd/learning-coach-mcp/internal/embedding"
	"github.com/coachd/learning-coach-mcp/internal/indexer"
	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server    *mcp.Server
	journal   *journal.Store
	store     *vectorstore.Store
	embedder  *embedding.Embedder
	assembler *digest.Assembler
	pipeline  *indexer.Pipeline
}

// Config holds server dependencies.
type Config struct {
	Journal   *journal.Store
	Store     *vectorstore.Store
	Embedder  *embedding.Embedder
	Assembler *digest.Assembler
	Pipeline  *indexer.Pipeline
}

// NewServer creates a configured MCP server with all tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "learning-coach",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_daily_digest",
		Description: "Generate today's learning digest: retrieve content matching the learner's topics, score it for relevance and return ranked insights with a summary.",
	}, makeDigestHandler(cfg.Assembler))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_content_source",
		Description: "Register an RSS feed, blog page or GitHub repository as a learning content source. By default the source is fetched and indexed immediately.",
	}, makeAddSourceHandler(cfg.Journal, cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_progress",
		Description: "Record the learner's current week, study topics and goals. Digests are built around these.",
	}, makeUpdateProgressHandler(cfg.Journal))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_progress",
		Description: "Return the learner's recorded week, study topics and goals.",
	}, makeGetProgressHandler(cfg.Journal))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_content",
		Description: "Fetch registered content sources and index their items into the vector store. Optionally restricted to one source type.",
	}, makeIngestHandler(cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_insights",
		Description: "Search previously generated insights by text. Returns matching insights newest first.",
	}, makeSearchInsightsHandler(cfg.Journal))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_today_insights",
		Description: "Return the insights generated by today's digest runs.",
	}, makeTodayInsightsHandler(cfg.Journal))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_content",
		Description: "Semantic search over indexed learning content. Returns titles with raw similarity scores, useful for checking what digest retrieval would surface.",
	}, makeSearchContentHandler(cfg.Embedder, cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "system_status",
		Description: "Report learner progress presence, source/document/insight counts and vector store connectivity.",
	}, makeStatusHandler(cfg.Journal, cfg.Store))

	return &Server{
		server:    server,
		journal:   cfg.Journal,
		store:     cfg.Store,
		embedder:  cfg.Embedder,
		assembler: cfg.Assembler,
		pipeline:  cfg.Pipeline,
	}
}

// Run starts the server with stdio transport (blocks until the client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// NewHTTPHandler exposes the server over the Streamable HTTP transport.
// The handler can be mounted on any mux path, typically "/mcp". Stateless
// mode disables session management; fine for a pure tool server.
func NewHTTPHandler(server *Server, stateless bool) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: stateless})
}
