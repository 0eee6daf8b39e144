package llm

import (
	"strings"

	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
	"gopkg.in/yaml.v3"
)

// ExtractFenced returns the body of the first ```lang fenced block in resp.
// The closing fence is the next ``` after the opening one.
func ExtractFenced(stage, resp, lang string) (string, error) {
	open := "```" + lang
	start := strings.Index(resp, open)
	if start < 0 {
		return "", perrors.Malformed(stage, resp, "no %s block in response", open)
	}
	body := resp[start+len(open):]

	end := strings.Index(body, "```")
	if end < 0 {
		return "", perrors.Malformed(stage, resp, "unterminated %s block", open)
	}
	return strings.TrimSpace(body[:end]), nil
}

// DecodeYAML extracts the ```yaml block of resp and decodes it into out.
func DecodeYAML(stage, resp string, out any) error {
	body, err := ExtractFenced(stage, resp, "yaml")
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(body), out); err != nil {
		return perrors.Malformed(stage, resp, "invalid yaml: %v", err)
	}
	return nil
}
