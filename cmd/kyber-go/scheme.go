package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/hybrid"
	"github.com/latticekem/kyber-go/pkg/kyber/kem"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
)

// scheme is a KEM that also frames its artifacts in envelopes.
type scheme interface {
	kem.KEM
	Seal(kind kem.Kind, data []byte) ([]byte, error)
	Open(raw []byte, kind kem.Kind) ([]byte, error)
}

var hybridIDs = []kem.ID{kem.X25519MLKEM768, kem.X25519Kyber768, kem.Secp256k1MLKEM768}

// schemeByName accepts any spelling ParseParameterSet accepts, plus the
// hybrid scheme names.
func schemeByName(name string, log logging.Logger) (scheme, error) {
	if ps, err := kyber.ParseParameterSet(name); err == nil {
		return kyber.New(ps, kyber.Config{Logger: log})
	}
	for _, id := range hybridIDs {
		if strings.EqualFold(id.String(), name) {
			return schemeByID(id, log)
		}
	}
	return nil, fmt.Errorf("unknown scheme %q", name)
}

func schemeByID(id kem.ID, log logging.Logger) (scheme, error) {
	if ps, err := kyber.ParameterSetByID(id); err == nil {
		return kyber.New(ps, kyber.Config{Logger: log})
	}
	return hybrid.ByID(id, hybrid.Config{Logger: log}, kyber.Config{Logger: log})
}

// schemeNames lists every scheme the tool can operate.
func schemeNames() []string {
	var names []string
	for _, ps := range kyber.ParameterSets() {
		names = append(names, ps.Name)
	}
	for _, id := range hybridIDs {
		names = append(names, id.String())
	}
	return names
}

// securePath validates that a file path doesn't escape the working directory.
func securePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	base, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	rel, err := filepath.Rel(base, absPath)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes working directory", path)
	}
	return absPath, nil
}

func readFile(path string) ([]byte, error) {
	abs, err := securePath(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs) // #nosec G304 -- abs validated by securePath
}

// writeFile writes data with owner-only permissions. Secrets and public
// artifacts are treated alike.
func writeFile(path string, data []byte) error {
	abs, err := securePath(path)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o600)
}

// openAny decodes an envelope of kind and resolves the scheme it names.
func openAny(raw []byte, kind kem.Kind, log logging.Logger) (scheme, []byte, error) {
	env, err := kem.Open(raw, kind)
	if err != nil {
		return nil, nil, err
	}
	s, err := schemeByID(env.Scheme, log)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.Open(raw, kind)
	if err != nil {
		return nil, nil, err
	}
	return s, data, nil
}
