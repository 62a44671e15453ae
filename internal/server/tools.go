package server

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools.
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Load a photo and return its dimensions, format, color depth, and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "detect_moon",
			Description: "Locate the lunar disk in a photo. Returns the fitted circle, the padded crop rectangle, a composite detection confidence with its sub-scores, and the clipped-highlight fraction. A photo without a usable moon is reported in the result, not as an error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "enhance_moon",
			Description: "Run the confidence-gated moon enhancement pipeline on a photo. When detection confidence is below the usable floor, a conservative global fallback is applied instead and reported as such.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"preset": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"natural", "crisp"},
						"description": "Base parameter set. Default natural",
						"default":     "natural",
					},
					"strength": map[string]interface{}{
						"type":        "number",
						"description": "Overall enhancement strength, 0-100. Default 100",
						"default":     100,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the result; the format follows the extension",
					},
					"comparison": map[string]interface{}{
						"type":        "boolean",
						"description": "Write a side-by-side before/after instead of the result alone. Requires output_path",
						"default":     false,
					},
					"return_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the result as base64 PNG in the response",
						"default":     false,
					},
					"video_frame": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat the input as a single extracted video frame (stronger denoise)",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
