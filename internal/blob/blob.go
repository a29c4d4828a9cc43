// Package blob stores uploaded files and hands back a URL for each.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	ProductImages   = "product-images"
	ProofOfPayments = "proof-of-payments"
)

var (
	ErrEmptyContent     = errors.New("file content is empty")
	ErrInvalidName      = errors.New("invalid file name")
	ErrInvalidContainer = errors.New("invalid container name")
)

type Store interface {
	Upload(ctx context.Context, container, name, contentType string, data []byte) (string, error)
}

// ObjectName builds a unique blob name that keeps the original file name
// readable.
func ObjectName(fileName string) (string, error) {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", ErrInvalidName
	}
	return uuid.NewString() + "_" + base, nil
}

func validContainer(container string) bool {
	if container == "" || len(container) > 63 {
		return false
	}
	for _, r := range container {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

func check(container, name string, data []byte) error {
	if !validContainer(container) {
		return ErrInvalidContainer
	}
	if name == "" || strings.ContainsAny(name, "/\\") {
		return ErrInvalidName
	}
	if len(data) == 0 {
		return ErrEmptyContent
	}
	return nil
}
