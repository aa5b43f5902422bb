package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Analyze a source repository, build its hierarchical summaries, and make it queryable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"persist": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, save the completed run so later sessions can query without re-indexing",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// queryRepositoryTool returns the tool definition for query_repository
func queryRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_repository",
		Description: "Hybrid keyword and semantic search over an indexed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language or keyword query",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Repository root; used to load a saved run when nothing is indexed in this session",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getOverviewTool returns the tool definition for get_overview
func getOverviewTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_overview",
		Description: "Return the hierarchical summary tree of an indexed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Repository root; used to load a saved run when nothing is indexed in this session",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Limit tree depth (0 = repository summary only)",
					"default":     2,
				},
			},
		},
	}
}
