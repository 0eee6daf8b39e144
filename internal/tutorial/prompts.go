package tutorial

import (
	"fmt"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
	"gopkg.in/yaml.v3"
)

// Prompt template names. Configuration may override any of them under
// the "prompts" key.
const (
	PromptIdentifyAbstractions = "identify_abstractions"
	PromptAnalyzeRelationships = "analyze_relationships"
	PromptOrderChapters        = "order_chapters"
	PromptWriteChapter         = "write_chapter"
	PromptPolishDocument       = "polish_document"
)

var defaultPrompts = map[string]string{
	PromptIdentifyAbstractions: `Analyze the following code file and identify the key abstractions (classes, interfaces, types, functions, etc.).
Return the results in YAML format:

` + "```yaml" + `
abstractions:
  - name: <abstraction name>
    type: <class|interface|type|function|etc>
    description: <brief description>
    location: <file path>
    dependencies: [<list of dependencies>]
` + "```" + `

File: ${file_path}
` + "```" + `
${content}
` + "```" + `
`,

	PromptAnalyzeRelationships: `Analyze the relationships between the following code abstractions.
Return the results in YAML format:

` + "```yaml" + `
relationships:
  - from: <abstraction name>
    to: <abstraction name>
    type: <inheritance|composition|dependency|etc>
    description: <brief description of the relationship>
` + "```" + `

Abstractions:
` + "```yaml" + `
${abstractions}
` + "```" + `
`,

	PromptOrderChapters: `Based on the following code abstractions and their relationships, create a logical order for tutorial chapters.
Return the results in YAML format:

` + "```yaml" + `
chapters:
  - title: <chapter title>
    description: <brief description of what this chapter covers>
    abstractions: [<list of abstraction names covered in this chapter>]
` + "```" + `

Abstractions:
` + "```yaml" + `
${abstractions}
` + "```" + `

Relationships:
` + "```yaml" + `
${relationships}
` + "```" + `
`,

	PromptWriteChapter: `Write a tutorial chapter in ${language} for the ${project_name} project based on the following information.
Return the results in YAML format:

` + "```yaml" + `
title: <chapter title>
content: |
  <chapter content in markdown format>
` + "```" + `

Chapter Information:
` + "```yaml" + `
${chapter}
` + "```" + `

Relevant Code Abstractions:
` + "```yaml" + `
${abstractions}
` + "```" + `

Relevant Relationships:
` + "```yaml" + `
${relationships}
` + "```" + `
`,

	PromptPolishDocument: `Create a tutorial section in ${language} by combining the following chapters.
Return the results in markdown format:

` + "```markdown" + `
${chapters}
` + "```" + `
`,
}

// NewPrompts returns the default prompt set with overrides applied.
func NewPrompts(overrides map[string]string) (*prompt.Set, error) {
	set := prompt.NewSet(defaultPrompts)
	for name, text := range overrides {
		if err := set.Override(name, text); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// toYAML renders v as a YAML payload for a prompt.
func toYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode prompt payload: %w", err)
	}
	return string(out), nil
}
