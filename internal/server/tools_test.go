package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	want := map[string]bool{
		"image_info":   false,
		"detect_moon":  false,
		"enhance_moon": false,
	}
	for _, tool := range tools {
		if _, ok := want[tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		want[tool.Name] = true

		if tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			t.Errorf("tool %q has no input schema", tool.Name)
			continue
		}
		if tool.InputSchema["type"] != "object" {
			t.Errorf("tool %q schema type: got %v", tool.Name, tool.InputSchema["type"])
		}

		// Every tool takes a required path.
		required, ok := tool.InputSchema["required"].([]string)
		if !ok || len(required) == 0 || required[0] != "path" {
			t.Errorf("tool %q must require path, got %v", tool.Name, tool.InputSchema["required"])
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not defined", name)
		}
	}
}

func TestToolDefinitionsSerialize(t *testing.T) {
	data, err := json.Marshal(GetToolDefinitions())
	if err != nil {
		t.Fatalf("tool definitions do not marshal: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("tool definitions do not round-trip: %v", err)
	}
	for _, tool := range decoded {
		if _, ok := tool["inputSchema"]; !ok {
			t.Errorf("tool %v missing inputSchema key after marshal", tool["name"])
		}
	}
}
