package artifact

import "encoding/json"

// marshalManifestLine renders one manifest.jsonl line (one artifact record
// per line, newline-terminated).
func marshalManifestLine(a Artifact) ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
