package openai

import (
	"fmt"

	"github.com/atomforge/atomforge/ai"
)

const generationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "atoms": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "subject": {
            "type": "string",
            "pattern": "^[a-z0-9]+([ :_-][a-z0-9]+)*$"
          },
          "content": {
            "type": "string"
          }
        },
        "required": ["subject", "content"],
        "additionalProperties": false
      }
    }
  },
  "required": ["atoms"],
  "additionalProperties": false
}`

const generationPromptTemplate = `Extract discrete, self-contained knowledge records from the given technical text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Each record must state one complete, verifiable fact that stands on its own without the surrounding text.
- The subject field is a short lowercase identifier for what the record is about (e.g. "siemens s7-1200", "vfd commissioning").
- Copy figures, part numbers and parameter names exactly as written. Do not invent values.
- Skip marketing language, navigation text, and anything that is not technical knowledge.
- If the text contains no extractable knowledge, return "atoms": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.
%s`

const checkResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "accuracy": {"type": "number", "minimum": 0, "maximum": 100},
    "specificity": {"type": "number", "minimum": 0, "maximum": 100},
    "grounding": {"type": "number", "minimum": 0, "maximum": 100},
    "reason": {"type": "string"}
  },
  "required": ["accuracy", "specificity", "grounding"],
  "additionalProperties": false
}`

const checkPromptTemplate = `Score the given knowledge record on three criteria and return the scores as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Your output must exactly follow this schema:

%s

Criteria, each scored 0-100:
- accuracy: is the stated fact internally consistent and technically plausible?
- specificity: does the record state something concrete (figures, procedures, named components) rather than a vague generality?
- grounding: could the record be verified against a technical source, or is it opinion/filler?

Set reason to a one-sentence explanation when any criterion scores below 50.`

// buildGenerationPrompt renders the system prompt for atom generation,
// appending source provenance when available.
func buildGenerationPrompt(meta ai.SourceMeta) string {
	provenance := ""
	if meta.Title != "" {
		provenance += fmt.Sprintf("\nDocument title: %s", meta.Title)
	}
	if meta.Subject != "" {
		provenance += fmt.Sprintf("\nDocument subject: %s", meta.Subject)
	}
	return fmt.Sprintf(generationPromptTemplate, generationResponseSchema, provenance)
}

// buildCheckPrompt renders the system prompt for quality checking.
func buildCheckPrompt() string {
	return fmt.Sprintf(checkPromptTemplate, checkResponseSchema)
}
