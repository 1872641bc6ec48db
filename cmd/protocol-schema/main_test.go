package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunWritesSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := run(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	var doc struct {
		Requests map[string]json.RawMessage `json:"requests"`
		Commands map[string]json.RawMessage `json:"commands"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if _, ok := doc.Requests["PollResponse"]; !ok {
		t.Fatal("expected PollResponse schema")
	}
	if _, ok := doc.Commands["Wait"]; !ok {
		t.Fatal("expected Wait command schema")
	}
}

func TestRunRejectsMissingDirectory(t *testing.T) {
	if err := run(filepath.Join(t.TempDir(), "missing", "schema.json")); err == nil {
		t.Fatal("expected create error")
	}
}
