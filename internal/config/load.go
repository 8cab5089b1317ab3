package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"leap-portfolio-lab/internal/domain"
)

// Load reads a YAML strategy file. Keys absent from the file keep the
// values of domain.DefaultConfig; unknown keys are rejected.
func Load(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML strategy parameters on top of the defaults.
func Parse(data []byte) (domain.Config, error) {
	params, err := Decode(data)
	if err != nil {
		return domain.Config{}, err
	}
	return params.ToDomain()
}

// Decode decodes YAML on top of DefaultParams without validating.
func Decode(data []byte) (Params, error) {
	params := DefaultParams()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("%w: decode yaml: %w", domain.ErrInvalidInput, err)
	}
	return params, nil
}

// DecodeJSON decodes a JSON request body on top of DefaultParams without validating.
// An empty body yields the defaults.
func DecodeJSON(data []byte) (Params, error) {
	params := DefaultParams()
	if len(bytes.TrimSpace(data)) == 0 {
		return params, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return Params{}, fmt.Errorf("%w: decode json: %w", domain.ErrInvalidInput, err)
	}
	return params, nil
}

// Marshal encodes cfg as a YAML strategy file.
func Marshal(cfg domain.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromDomain(cfg)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
