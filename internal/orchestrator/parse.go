package orchestrator

import (
	"encoding/json"
	"errors"
	"strings"
)

var errMissingOutput = errors.New("missing output field")

type reasonedReply struct {
	Output *string `json:"output"`
	Reason string  `json:"reason"`
}

// parseReasoned decodes a {output, reason} object. Markdown code fences
// around the object are tolerated.
func parseReasoned(text string) (output, reason string, err error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var r reasonedReply
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return "", "", err
	}
	if r.Output == nil {
		return "", "", errMissingOutput
	}
	return strings.TrimSpace(*r.Output), strings.TrimSpace(r.Reason), nil
}

// resolveReasoned tries the enforced text first, then the raw reply.
func resolveReasoned(layerID, accepted, original string) (string, string, error) {
	out, reason, err := parseReasoned(accepted)
	if err == nil {
		return out, reason, nil
	}
	out, reason, err2 := parseReasoned(original)
	if err2 == nil {
		return out, reason, nil
	}
	return "", "", &ParseError{
		LayerID:  layerID,
		Accepted: accepted,
		Original: original,
		Err:      errors.Join(err, err2),
	}
}
