// Package project derives stable project identities for enforcement
// sessions. The same working tree always maps to the same hash, so audit
// rows and discovery history group correctly across sessions.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when no project path is provided.
var ErrEmptyPath = errors.New("project path cannot be empty")

// Identity is the stable identity of a project working tree.
type Identity struct {
	// Hash is the first 16 hex chars of sha256 over the cleaned path.
	Hash string
	// Name is the base directory name.
	Name string
	// Path is the cleaned absolute path.
	Path string
}

// Identify derives the identity for a project path.
func Identify(path string) (*Identity, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(abs))
	return &Identity{
		Hash: hex.EncodeToString(sum[:])[:16],
		Name: filepath.Base(abs),
		Path: abs,
	}, nil
}
