package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// Normalize turns a config source into a detached mapping.
//
// Accepted sources:
//   - nil: empty mapping
//   - map[string]any (or any map with string keys): deep copy
//   - string: path to a .json, .yaml, or .yml file
//
// Anything else, a missing or malformed file, or a document whose top
// level is not a mapping yields E_CONFIG_INVALID.
func Normalize(fsys fs.FS, source any) (map[string]any, error) {
	switch src := source.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		return loadFile(fsys, src)
	}

	v, err := normalizeValue(source, "config")
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.NewWithDetails(errors.EConfigInvalid,
			fmt.Sprintf("config must be a mapping or a file path, got %T", source),
			map[string]string{"config": fmt.Sprintf("%T", source)})
	}
	return m, nil
}

func loadFile(fsys fs.FS, path string) (map[string]any, error) {
	details := map[string]string{"config": path}
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewWithDetails(errors.EConfigInvalid, "config path is empty", details)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, errors.NewWithDetails(errors.EConfigInvalid, "unsupported config file type "+quoteExt(ext)+"; use .json, .yaml, or .yml", details)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithDetails(errors.EConfigInvalid, "config file does not exist", details)
		}
		return nil, errors.WrapWithDetails(errors.EConfigInvalid, "failed to read config file", err, details)
	}

	var doc any
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.WrapWithDetails(errors.EConfigInvalid, "config file is not valid JSON: "+err.Error(), err, details)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.WrapWithDetails(errors.EConfigInvalid, "config file is not valid YAML: "+err.Error(), err, details)
		}
	}

	v, err := normalizeValue(doc, "config")
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.NewWithDetails(errors.EConfigInvalid, "config file top level must be a mapping", details)
	}
	return m, nil
}

func quoteExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return fmt.Sprintf("%q", ext)
}

// normalizeValue deep-copies v into the closed set of types that both
// JSON and YAML can round-trip: map[string]any, []any, string, bool,
// int64, float64, and nil.
func normalizeValue(v any, path string) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool:
		return x, nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, invalidValue(path, "number out of range")
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			nv, err := normalizeValue(val, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, invalidValue(path, fmt.Sprintf("mapping key %v is not a string", k))
			}
			nv, err := normalizeValue(val, path+"."+ks)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			nv, err := normalizeValue(val, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, invalidValue(path, "integer out of range")
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalidValue(path, "NaN and Inf are not representable")
		}
		return f, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, invalidValue(path, "mapping keys must be strings")
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			nv, err := normalizeValue(iter.Value().Interface(), path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := normalizeValue(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	}
	return nil, invalidValue(path, fmt.Sprintf("unsupported value type %T", v))
}

func invalidValue(path, reason string) error {
	return errors.NewWithDetails(errors.EConfigInvalid, "invalid config value at "+path+": "+reason, map[string]string{"config": path})
}

// Clone deep-copies a normalized mapping.
func Clone(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return Clone(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// SnapshotName picks the snapshot file name for a config source:
// config.json for .json sources, config.yaml otherwise.
func SnapshotName(source any) string {
	if p, ok := source.(string); ok && strings.EqualFold(filepath.Ext(p), ".json") {
		return "config.json"
	}
	return "config.yaml"
}

// Encode serializes cfg for the snapshot named name: YAML for .yaml/.yml,
// indented JSON otherwise. Map keys are emitted in sorted order so the
// bytes are deterministic.
func Encode(cfg map[string]any, name string) ([]byte, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, errors.Wrap(errors.EConfigInvalid, "failed to encode config as YAML", err)
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(errors.EConfigInvalid, "failed to encode config as YAML", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.EConfigInvalid, "failed to encode config as JSON", err)
		}
		return append(data, '\n'), nil
	}
}
