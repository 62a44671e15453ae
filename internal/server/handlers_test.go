package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astropaint/moonshine/internal/enhance"
)

// writeMoonPNG renders a detectable synthetic moon photo to disk.
func writeMoonPNG(t *testing.T, size int, cx, cy, r float64) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.04
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r {
				v = 0.70 + 0.18*math.Sin(float64(x)*0.35)*math.Sin(float64(y)*0.35)
			}
			g := uint8(v*255 + 0.5)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "moon.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

// writeDarkPNG renders a frame with no moon in it.
func writeDarkPNG(t *testing.T, size int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "dark.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestExecuteToolUnknown(t *testing.T) {
	s := New("")
	if _, err := s.executeTool("no_such_tool", nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestImageInfoTool(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 120, 60, 60, 30)

	result, err := s.executeTool("image_info", json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)))
	if err != nil {
		t.Fatalf("image_info: %v", err)
	}

	data, _ := json.Marshal(result)
	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Width != 120 || info.Height != 120 {
		t.Errorf("dimensions: got %dx%d, want 120x120", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s", info.Format)
	}
}

func TestDetectMoonTool(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 200, 100, 100, 40)

	result, err := s.executeTool("detect_moon", json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)))
	if err != nil {
		t.Fatalf("detect_moon: %v", err)
	}

	resp, ok := result.(detectMoonResponse)
	if !ok {
		t.Fatalf("result type: %T", result)
	}
	if !resp.Detected {
		t.Fatalf("moon not detected: %q", resp.Reason)
	}
	if resp.Crop == nil {
		t.Fatal("crop rectangle missing from response")
	}
	if math.Abs(resp.Circle.CenterX-100) > 2 || math.Abs(resp.Circle.Radius-40) > 2 {
		t.Errorf("circle: got center %v,%v radius %v",
			resp.Circle.CenterX, resp.Circle.CenterY, resp.Circle.Radius)
	}
}

func TestDetectMoonResultCached(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 200, 100, 100, 40)
	args := json.RawMessage(fmt.Sprintf(`{"path":%q}`, path))

	r1, err := s.executeTool("detect_moon", args)
	if err != nil {
		t.Fatalf("first detect: %v", err)
	}
	r2, err := s.executeTool("detect_moon", args)
	if err != nil {
		t.Fatalf("second detect: %v", err)
	}
	if r1.(detectMoonResponse).Result != r2.(detectMoonResponse).Result {
		t.Error("second detection did not reuse the cached result")
	}
}

func TestEnhanceMoonTool(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 200, 100, 100, 40)
	outPath := filepath.Join(t.TempDir(), "enhanced.png")

	args := json.RawMessage(fmt.Sprintf(
		`{"path":%q,"preset":"crisp","strength":60,"output_path":%q,"return_image":true}`,
		path, outPath))
	result, err := s.executeTool("enhance_moon", args)
	if err != nil {
		t.Fatalf("enhance_moon: %v", err)
	}

	resp, ok := result.(enhanceMoonResponse)
	if !ok {
		t.Fatalf("result type: %T", result)
	}
	if !resp.Detected || resp.FallbackApplied {
		t.Errorf("expected full pipeline run, got detected=%v fallback=%v",
			resp.Detected, resp.FallbackApplied)
	}
	if resp.Preset != "crisp" || resp.Strength != 60 {
		t.Errorf("echoed settings: preset=%s strength=%v", resp.Preset, resp.Strength)
	}
	if resp.Metrics == nil || resp.Metrics.RunID == "" {
		t.Error("metrics missing from response")
	}
	if resp.Image == nil || resp.Image.MimeType != "image/png" {
		t.Error("inline image missing from response")
	}
	if resp.OutputPath != outPath {
		t.Errorf("output path: got %q", resp.OutputPath)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestEnhanceMoonComparisonOutput(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 200, 100, 100, 40)
	outPath := filepath.Join(t.TempDir(), "compare.png")

	args := json.RawMessage(fmt.Sprintf(
		`{"path":%q,"output_path":%q,"comparison":true}`, path, outPath))
	if _, err := s.executeTool("enhance_moon", args); err != nil {
		t.Fatalf("enhance_moon: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open comparison: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode comparison: %v", err)
	}
	// Before and after crops are the same size, side by side.
	if img.Bounds().Dx() != 2*img.Bounds().Dy() {
		t.Errorf("comparison layout: got %v, want 2:1 aspect", img.Bounds())
	}
}

func TestEnhanceMoonFallback(t *testing.T) {
	s := New("")
	path := writeDarkPNG(t, 120)

	args := json.RawMessage(fmt.Sprintf(`{"path":%q}`, path))
	result, err := s.executeTool("enhance_moon", args)
	if err != nil {
		t.Fatalf("enhance_moon: %v", err)
	}

	resp := result.(enhanceMoonResponse)
	if resp.Detected {
		t.Error("dark frame reported as detected")
	}
	if !resp.FallbackApplied {
		t.Error("fallback not applied for an undetected moon")
	}
	found := false
	for _, w := range resp.Warnings {
		if w == enhance.WarnLowConfidence {
			found = true
		}
	}
	if !found {
		t.Errorf("missing low-confidence warning in %v", resp.Warnings)
	}
}

func TestHandleToolsCallInvalidParams(t *testing.T) {
	s := New("")
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{not json`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCallWrapsContent(t *testing.T) {
	s := New("")
	path := writeMoonPNG(t, 120, 60, 60, 30)

	params, _ := json.Marshal(ToolCallParams{
		Name:      "image_info",
		Arguments: json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)),
	})
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: params})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v", content[0]["type"])
	}
	if content[0]["text"] == "" {
		t.Error("content text is empty")
	}
}

func TestHandleToolsCallToolError(t *testing.T) {
	s := New("")
	params, _ := json.Marshal(ToolCallParams{
		Name:      "detect_moon",
		Arguments: json.RawMessage(`{"path":"/nonexistent/moon.png"}`),
	})
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 8, Method: "tools/call", Params: params})

	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected -32000 tool failure, got %+v", resp.Error)
	}
}
