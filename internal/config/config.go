package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag when reading overrides.
const EnvPrefix = "BLINKD_"

// ErrConfigType reports a config file value whose type does not fit the
// option it targets.
var ErrConfigType = errors.New("config value has wrong type")

// binding ties one options field to its CLI flag, TOML path and env key.
type binding struct {
	name  string
	field reflect.Value
	flag  string
	toml  string
	env   string
}

func bindings(opts any) []binding {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()
	out := make([]binding, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		out = append(out, binding{
			name:  sf.Name,
			field: v.Field(i),
			flag:  fieldNameToFlag(sf.Name),
			toml:  sf.Tag.Get("toml"),
			env:   sf.Tag.Get("env"),
		})
	}
	return out
}

// LoadConfig fills opts with precedence CLI flags > env vars > config file.
// The file path comes from the field named Config; a missing file is not
// an error. Flags explicitly set on cmd are never overwritten. TOML values
// of the wrong type are skipped and reported together in the returned error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	fields := bindings(opts)

	changed := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			changed[f.Name] = f.Changed
		})
	}

	var configPath string
	for _, b := range fields {
		if b.name == "Config" {
			configPath = b.field.String()
		}
	}

	var file map[string]any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("read config %s: %w", configPath, err)
		default:
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}
		}
	}

	var errs []error
	for _, b := range fields {
		if changed[b.flag] {
			continue
		}
		if b.toml != "" && file != nil {
			if value := getNestedValue(file, b.toml); value != nil {
				if err := setFieldValue(b.field, value); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", b.toml, err))
				}
			}
		}
		if b.env != "" {
			if envValue := os.Getenv(EnvPrefix + b.env); envValue != "" {
				setFieldValueFromString(b.field, envValue)
			}
		}
	}
	return errors.Join(errs...)
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	keys := strings.Split(path, ".")
	current := data
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[keys[len(keys)-1]]
}

// setFieldValue assigns a decoded TOML value to field. String fields also
// accept numbers and arrays, rendered the way the matching env var would be
// written, so `pins = [2, 4, 5]` and `pins = "2,4,5"` are equivalent.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	mismatch := func() error {
		return fmt.Errorf("%w: cannot use %T as %s", ErrConfigType, value, field.Type())
	}

	switch field.Kind() {
	case reflect.String:
		switch val := value.(type) {
		case string:
			field.SetString(val)
		case int64:
			field.SetString(strconv.FormatInt(val, 10))
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = fmt.Sprint(item)
			}
			field.SetString(strings.Join(parts, ","))
		default:
			return mismatch()
		}
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return mismatch()
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, ok := value.(int64)
		if !ok {
			return mismatch()
		}
		field.SetInt(n)
	case reflect.Uint32:
		n, ok := value.(int64)
		if !ok || n < 0 || n > math.MaxUint32 {
			return mismatch()
		}
		field.SetUint(uint64(n))
	case reflect.Slice:
		arr, ok := value.([]any)
		if !ok {
			return mismatch()
		}
		switch field.Type().Elem().Kind() {
		case reflect.Int:
			ints := make([]int, 0, len(arr))
			for _, item := range arr {
				n, ok := item.(int64)
				if !ok {
					return mismatch()
				}
				ints = append(ints, int(n))
			}
			field.Set(reflect.ValueOf(ints))
		case reflect.String:
			strs := make([]string, 0, len(arr))
			for _, item := range arr {
				str, ok := item.(string)
				if !ok {
					return mismatch()
				}
				strs = append(strs, str)
			}
			field.Set(reflect.ValueOf(strs))
		default:
			return mismatch()
		}
	default:
		return mismatch()
	}
	return nil
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Uint32:
		if i, err := strconv.ParseUint(value, 10, 32); err == nil {
			field.SetUint(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.Int {
			ints, err := ParseIntList(value)
			if err == nil {
				field.Set(reflect.ValueOf(ints))
			}
		} else if field.Type().Elem().Kind() == reflect.String {
			// Parse comma-separated values for env vars
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// LoadLoggingConfig loads logging configuration from a TOML config file.
// Returns default config if file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var rawConfig struct {
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &rawConfig); err != nil {
		return cfg
	}

	if rawConfig.Logging == nil {
		return cfg
	}

	// Extract level and format, rest are module-specific levels
	for key, value := range rawConfig.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}

	return cfg
}

// ParseIntList parses a comma-separated list of integers such as "2,4,5".
// Empty entries are skipped.
func ParseIntList(value string) ([]int, error) {
	var out []int
	for part := range strings.SplitSeq(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseNameList splits a comma-separated list of names, trimming blanks.
func ParseNameList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePinMap parses "pin=name" pairs separated by commas, e.g.
// "2=usr_led,4=status".
func ParsePinMap(value string) (map[int]string, error) {
	out := make(map[int]string)
	for part := range strings.SplitSeq(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, name, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid pin mapping %q, want pin=name", part)
		}
		pin, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid pin in %q: %w", part, err)
		}
		out[pin] = strings.TrimSpace(name)
	}
	return out, nil
}
