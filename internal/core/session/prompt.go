package session

import (
	"encoding/json"
	"fmt"

	"github.com/markdave123-py/docchat/internal/models"
)

const promptTemplate = `
Answer this question about the attached document: %s.
Answer as a chatbot with short messages and text only (no markdowns, tags or symbols)
Chat history: %s
`

// BuildPrompt embeds the question and the prior transcript. The document
// itself travels next to the prompt as inline data.
func BuildPrompt(question string, history []models.Message) string {
	if history == nil {
		history = []models.Message{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		raw = []byte("[]")
	}
	return fmt.Sprintf(promptTemplate, question, raw)
}
