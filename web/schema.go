package web

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildOptionsSchema describes a PUT /jobs/{id}/options body: an object of
// known option keys to booleans, nothing else.
func buildOptionsSchema() map[string]any {
	props := make(map[string]any, len(core.OptionKeys))
	for _, k := range core.OptionKeys {
		props[string(k)] = map[string]any{"type": "boolean"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"minProperties":        1,
		"properties":           props,
	}
}

func compileOptionsSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(buildOptionsSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("options.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("options.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// decodeOptions validates data and returns the requested option changes.
func decodeOptions(schema *jsonschema.Schema, data []byte) (map[core.OptionKey]bool, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	out := make(map[core.OptionKey]bool, len(raw))
	for k, val := range raw {
		key, ok := core.ParseOptionKey(k)
		if !ok {
			return nil, fmt.Errorf("%w: unknown option %q", core.ErrInvalidInput, k)
		}
		out[key] = val
	}
	return out, nil
}
