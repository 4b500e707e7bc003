package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong configuration loader for YAML files.
//
// Keys match flag names with dashes or underscores, and may be nested by
// the dotted segments of the flag name:
//
//	listen: 0.0.0.0:8080
//	store: postgres
//	postgres-conn-string: postgres://localhost/stockroom
//	rate_limit_per_minute: 20
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := lookup(values, flag.Name)
		if !ok {
			return nil, nil
		}
		return flatten(raw), nil
	}

	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if raw, ok := values[key]; ok {
			return raw, true
		}
	}

	var raw any = values
	for _, part := range strings.Split(name, ".") {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		if raw, ok = m[part]; !ok {
			return nil, false
		}
	}
	return raw, true
}

// flatten renders YAML scalars and sequences in kong's flag syntax.
func flatten(raw any) string {
	switch v := raw.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
