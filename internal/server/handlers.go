package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/enhance"
	"github.com/astropaint/moonshine/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_moon").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified
// tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "detect_moon":
		return s.handleDetectMoon(args)
	case "enhance_moon":
		return s.handleEnhanceMoon(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// detectFor returns the cached detection for a path, running it on first
// use.
func (s *Server) detectFor(path string, img image.Image) (*detect.Result, error) {
	s.mu.Lock()
	if res, ok := s.detections[path]; ok {
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	res, err := detect.DetectImage(img, detect.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.detections[path] = res
	s.mu.Unlock()
	return res, nil
}

// === image_info ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === detect_moon ===

type cropRectJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// detectMoonResponse augments the detection result with the crop rectangle,
// which the Result type itself keeps out of its JSON form.
type detectMoonResponse struct {
	*detect.Result
	Crop *cropRectJSON `json:"crop,omitempty"`
}

func (s *Server) handleDetectMoon(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.detectFor(a.Path, img)
	if err != nil {
		return nil, err
	}

	resp := detectMoonResponse{Result: res}
	if !res.CropRect.Empty() {
		resp.Crop = &cropRectJSON{
			X:      res.CropRect.Min.X,
			Y:      res.CropRect.Min.Y,
			Width:  res.CropRect.Dx(),
			Height: res.CropRect.Dy(),
		}
	}
	return resp, nil
}

// === enhance_moon ===

type enhanceMoonArgs struct {
	Path        string   `json:"path"`
	Preset      string   `json:"preset"`
	Strength    *float64 `json:"strength"`
	OutputPath  string   `json:"output_path"`
	Comparison  bool     `json:"comparison"`
	ReturnImage bool     `json:"return_image"`
	VideoFrame  bool     `json:"video_frame"`
}

type enhanceMoonResponse struct {
	Detected        bool                        `json:"detected"`
	FallbackApplied bool                        `json:"fallback_applied"`
	Preset          string                      `json:"preset"`
	Strength        float64                     `json:"strength"`
	Warnings        []string                    `json:"warnings,omitempty"`
	Metrics         *enhance.EnhancementMetrics `json:"metrics,omitempty"`
	OutputPath      string                      `json:"output_path,omitempty"`
	Image           *imaging.EncodedImage       `json:"image,omitempty"`
}

func (s *Server) handleEnhanceMoon(args json.RawMessage) (interface{}, error) {
	var a enhanceMoonArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Preset == "" {
		a.Preset = string(enhance.PresetNatural)
	}
	strength := 100.0
	if a.Strength != nil {
		strength = *a.Strength
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	det, err := s.detectFor(a.Path, img)
	if err != nil {
		return nil, err
	}

	params := enhance.ByPreset(enhance.Preset(a.Preset)).WithStrength(strength)
	resp := enhanceMoonResponse{
		Detected: det.Detected,
		Preset:   a.Preset,
		Strength: strength,
	}

	// before/after for the comparison output; for a detected moon the
	// "before" is the same crop the pipeline worked on.
	var before image.Image = img
	var out image.Image

	if det.Detected {
		result, err := enhance.Enhance(img, det, enhance.Options{
			Params:     params,
			VideoFrame: a.VideoFrame,
		})
		if err != nil {
			return nil, err
		}
		out = result.Image
		before = imaging.CropRegion(img, det.CropRect)
		resp.Warnings = result.Warnings
		resp.Metrics = &result.Metrics
	} else {
		out = imaging.ConservativeEnhance(img, strength)
		resp.FallbackApplied = true
		resp.Warnings = []string{enhance.WarnLowConfidence}
	}

	if a.OutputPath != "" {
		toSave := out
		if a.Comparison {
			toSave = imaging.SideBySide(before, out)
		}
		if err := imaging.Save(toSave, a.OutputPath); err != nil {
			return nil, err
		}
		resp.OutputPath = a.OutputPath
	}

	if a.ReturnImage {
		encoded, err := imaging.EncodePNG(out, 1.0)
		if err != nil {
			return nil, err
		}
		resp.Image = encoded
	}

	return resp, nil
}
