package core

import (
	"context"

	"github.com/markdave123-py/docchat/internal/models"
)

// LLMProvider answers a prompt about an inline document.
type LLMProvider interface {
	GenerateWithDocument(ctx context.Context, doc models.Document, prompt string) (string, error)
}
