package protocol

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// SchemaDocument describes the wire contract: one schema per RPC envelope
// and one per command payload, keyed by the variant tag.
type SchemaDocument struct {
	Title    string                             `json:"title"`
	Requests map[string]*jsonschema.Schema      `json:"requests"`
	Commands map[CommandKind]*jsonschema.Schema `json:"commands"`
}

var envelopeTypes = map[string]any{
	"ConnectRequest":        ConnectRequest{},
	"ConnectResponse":       ConnectResponse{},
	"PerformActionResponse": PerformActionResponse{},
	"PollRequest":           PollRequest{},
	"PollResponse":          PollResponse{},
	"ClientLogRequest":      ClientLogRequest{},
	"ClientLogResponse":     ClientLogResponse{},
}

// Schema reflects the wire types into JSON schemas.
func Schema() SchemaDocument {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	doc := SchemaDocument{
		Title:    "Dreamtides client protocol",
		Requests: make(map[string]*jsonschema.Schema, len(envelopeTypes)),
		Commands: make(map[CommandKind]*jsonschema.Schema, len(commandPrototypes)),
	}
	for name, value := range envelopeTypes {
		schema := reflector.ReflectFromType(reflect.TypeOf(value))
		schema.Title = name
		doc.Requests[name] = schema
	}
	for kind, prototype := range commandPrototypes {
		schema := reflector.ReflectFromType(payloadType(prototype))
		schema.Version = ""
		schema.Title = string(kind)
		doc.Commands[kind] = schema
	}
	return doc
}

// payloadType returns the type that appears under the variant tag. Tuple
// variants encode their single field directly.
func payloadType(cmd Command) reflect.Type {
	switch cmd.(type) {
	case WaitCommand:
		return reflect.TypeOf(Milliseconds{})
	case DisplayGameMessageCommand:
		return reflect.TypeOf(GameMessageType(""))
	default:
		return reflect.TypeOf(cmd)
	}
}
