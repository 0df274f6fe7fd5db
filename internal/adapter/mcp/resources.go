package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const routesURI = "agent://routes"

// routeInfo is the public view of one dispatch rule.
type routeInfo struct {
	Name string   `json:"name"`
	All  []string `json:"all,omitempty"`
	Any  []string `json:"any,omitempty"`
}

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			routesURI,
			"Dispatch Routes",
			mcplib.WithResourceDescription("Ordered action-matching rules used to select a task handler"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRoutesResource,
	)
}

func (s *Server) handleRoutesResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Routes == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"dispatcher not configured"}`,
			},
		}, nil
	}

	routes := s.deps.Routes.Routes()
	infos := make([]routeInfo, 0, len(routes))
	for i := range routes {
		infos = append(infos, routeInfo{
			Name: routes[i].Name,
			All:  routes[i].Match.All,
			Any:  routes[i].Match.Any,
		})
	}
	data, err := json.Marshal(infos)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
