package application

import (
	"fmt"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"

	"linear-mcp-server/internal/domain"
)

// validateArguments checks args against the capability's input schema.
// Field-level problems (missing, wrong type, outside enum, too short) are
// reported by name; anything else the full schema rejects is reported as a reason.
func validateArguments(entry *registeredCapability, args domain.Arguments) error {
	d := entry.descriptor
	schema := d.InputSchema

	fields := map[string]struct{}{}

	for _, name := range schema.Required {
		if v, ok := args[name]; !ok || v == nil {
			fields[name] = struct{}{}
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok || prop == nil {
			continue
		}
		if !propertyAccepts(prop, value) {
			fields[name] = struct{}{}
		}
	}

	if len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		return &domain.InvalidArgumentsError{Capability: d.Name, Fields: names}
	}

	instance := map[string]any(args)
	if instance == nil {
		instance = map[string]any{}
	}
	if err := entry.schema.Validate(instance); err != nil {
		return &domain.InvalidArgumentsError{Capability: d.Name, Reason: err.Error()}
	}

	return nil
}

// propertyAccepts applies the per-property checks that map to a field name.
func propertyAccepts(prop *jsonschema.Schema, value any) bool {
	if value == nil {
		return false
	}

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return false
		}
		if prop.MinLength != nil && utf8.RuneCountInString(s) < *prop.MinLength {
			return false
		}
	case "integer", "number":
		switch value.(type) {
		case float64, int, int64:
		default:
			return false
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return false
		}
	}

	if len(prop.Enum) > 0 {
		for _, allowed := range prop.Enum {
			if reflect.DeepEqual(allowed, value) {
				return true
			}
		}
		return false
	}

	return true
}

// stringArguments converts prompts/get arguments, which MCP defines as strings.
func stringArguments(in map[string]string) domain.Arguments {
	args := make(domain.Arguments, len(in))
	for k, v := range in {
		args[k] = v
	}
	return args
}

// requireString extracts a validated string argument.
func requireString(args domain.Arguments, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok {
		return "", &domain.InvalidArgumentsError{
			Fields: []string{name},
			Reason: fmt.Sprintf("%s must be a string", name),
		}
	}
	return value, nil
}
