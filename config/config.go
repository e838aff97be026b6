// Package config loads di.BuildOptions from YAML files, .env files and the
// process environment.
//
// Precedence, lowest first: di.DefaultOptions, the YAML file, .env files,
// the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/speedioc/di"
)

// Environment variables read by FromEnv.
const (
	EnvForceRegenerate    = "SPEEDIOC_FORCE_REGENERATE"
	EnvCacheLocation      = "SPEEDIOC_CACHE_LOCATION"
	EnvArtifactIdentity   = "SPEEDIOC_ARTIFACT_IDENTITY"
	EnvRetainArtifact     = "SPEEDIOC_RETAIN_ARTIFACT"
	EnvDiagnosticComments = "SPEEDIOC_DIAGNOSTIC_COMMENTS"
	EnvRenditionPackage   = "SPEEDIOC_RENDITION_PACKAGE"
)

// Load reads the YAML file at path over di.DefaultOptions. Unknown keys are
// rejected.
func Load(path string) (di.BuildOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return di.BuildOptions{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over di.DefaultOptions. Empty input yields the defaults.
func Parse(data []byte) (di.BuildOptions, error) {
	opts := di.DefaultOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return di.BuildOptions{}, fmt.Errorf("config: decoding options: %w", err)
	}
	return opts, nil
}

// FromEnv applies the SPEEDIOC_* variables to base. Variables are looked up in
// the process environment first, then in envFiles (read with godotenv, without
// touching the process environment). Blank values are treated as unset.
func FromEnv(base di.BuildOptions, envFiles ...string) (di.BuildOptions, error) {
	fileVars := map[string]string{}
	if len(envFiles) > 0 {
		m, err := godotenv.Read(envFiles...)
		if err != nil {
			return di.BuildOptions{}, fmt.Errorf("config: reading env files: %w", err)
		}
		fileVars = m
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileVars[key]
	}
	return apply(base, lookup)
}

// Resolve loads the YAML file at path (skipped when empty), applies the
// environment and validates the result.
func Resolve(path string, envFiles ...string) (di.BuildOptions, error) {
	opts := di.DefaultOptions()
	if path != "" {
		var err error
		if opts, err = Load(path); err != nil {
			return di.BuildOptions{}, err
		}
	}
	opts, err := FromEnv(opts, envFiles...)
	if err != nil {
		return di.BuildOptions{}, err
	}
	if err := opts.Validate(); err != nil {
		return di.BuildOptions{}, err
	}
	return opts, nil
}

func apply(opts di.BuildOptions, lookup func(string) string) (di.BuildOptions, error) {
	if v := lookup(EnvCacheLocation); v != "" {
		opts.CacheLocation = v
	}
	if v := lookup(EnvArtifactIdentity); v != "" {
		opts.ArtifactIdentity = v
	}
	if v := lookup(EnvRenditionPackage); v != "" {
		opts.RenditionPackage = v
	}

	flags := []struct {
		key   string
		field string
		dst   *bool
	}{
		{EnvForceRegenerate, "ForceRegenerate", &opts.ForceRegenerate},
		{EnvRetainArtifact, "RetainGeneratedArtifact", &opts.RetainGeneratedArtifact},
		{EnvDiagnosticComments, "IncludeDiagnosticComments", &opts.IncludeDiagnosticComments},
	}
	for _, f := range flags {
		v := lookup(f.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return di.BuildOptions{}, di.ConfigurationError{
				Field:  f.field,
				Reason: fmt.Sprintf("%s=%q is not a boolean", f.key, v),
			}
		}
		*f.dst = b
	}
	return opts, nil
}
