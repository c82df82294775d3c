package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it carries alpha. The decoded image is cached for later calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a pixel, as hex, RGB and HSL. Useful for picking the key color from a backdrop pixel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Chroma Key
		{
			Name:        "chromakey_suggest_key",
			Description: "Suggest key colors by sampling the image border, where a backdrop usually dominates. Candidates are ordered by how much of the border they cover.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of candidates to return. Default 5",
						"default":     defaultSuggestCount,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chromakey_process",
			Description: "Remove a solid-color backdrop. Pixels within tolerance of the key color become transparent; the mask is then choked and feathered. Returns the RGBA PNG as base64, or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"hex_color": map[string]interface{}{
						"type":        "string",
						"description": "Key color as #RRGGBB. Default from server configuration (#00FF00)",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Euclidean RGB distance below which a pixel is keyed out. 0 keys only exact matches",
						"minimum":     0,
					},
					"choke_pixels": map[string]interface{}{
						"type":        "integer",
						"description": "Radius in pixels by which the opaque region is shrunk",
						"minimum":     0,
					},
					"feather_pixels": map[string]interface{}{
						"type":        "integer",
						"description": "Radius in pixels of the Gaussian blur softening the mask edge",
						"minimum":     0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the PNG to instead of returning it inline",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
