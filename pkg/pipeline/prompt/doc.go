/*
Package prompt renders model prompts from ${var} templates.

# Basic Usage

	exp := prompt.NewExpander(prompt.WithMissingAction(prompt.MissingError))
	text, err := exp.Expand("File: ${path}\n${content}", map[string]any{
	    "path":    "src/a.ts",
	    "content": "export class A {}",
	})

Only the brace style is recognised. Inserted values are never expanded
again, so source code containing "$" or "${...}" passes through verbatim.

# Template Sets

A Set holds named templates with defaults that configuration may override:

	set := prompt.NewSet(map[string]string{"greet": "Hello ${name}"})
	if err := set.Override("greet", "Hi ${name}"); err != nil {
	    return err
	}
	text, err := set.Render("greet", map[string]any{"name": "Ada"})

Set.Render always fails on undefined variables.

# Thread Safety

Expander is safe for concurrent use after construction.
Set is safe for concurrent Render calls; Override must not race with Render.
*/
package prompt
