// Package main writes the JSON schema of the engine wire contract.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	entrypoint "github.com/louisbranch/dreamtides/internal/platform/cmd"
	"github.com/louisbranch/dreamtides/internal/platform/config"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

func main() {
	out := flag.String("out", "", "Write the schema to this file instead of stdout")
	flag.Parse()

	if err := run(*out); err != nil {
		config.Exitf("%s: %v", entrypoint.ServiceProtocolSchema, err)
	}
}

func run(path string) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(protocol.Schema())
}
