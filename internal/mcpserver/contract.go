package mcpserver

// NoteFormatContract describes the note structure that LLM consumers should
// follow when creating or updating notes.
const NoteFormatContract = `# Mindra Note Format Contract

A note has three required fields. All of them are trimmed before saving.

| Field      | Limit          | Notes                                         |
|------------|----------------|-----------------------------------------------|
| title      | 1-200 chars    | The link target other notes refer to.         |
| category   | 1-100 chars    | Free-form grouping, e.g. ` + "`" + `work` + "`" + `, ` + "`" + `ideas` + "`" + `.       |
| content    | non-empty      | Plain text or Markdown.                       |

## Links

Write ` + "`" + `[[Other title]]` + "`" + ` anywhere in the content to link to the note whose
title is exactly ` + "`" + `Other title` + "`" + `.

1. Matching is **exact**: case, spaces and punctuation all count.
2. There is no alias syntax. ` + "`" + `[[a|b]]` + "`" + ` links to a note titled ` + "`" + `a|b` + "`" + `.
3. A link to a title that does not exist is kept and reported as dangling.
4. Repeating a link in one note adds one edge, not several.
5. Titles do not have to be unique; a link reaches every note with that title.

## Vault files

Notes imported from the vault directory are Markdown files with optional
YAML frontmatter:

` + "```" + `markdown
---
title: Weekly standup
category: meetings
created: 2025-01-20T09:00:00Z
---

Discussed [[Roadmap]] and [[Hiring plan]].
` + "```" + `

Without a title the first level-1 heading is used, then the file name.
Without a category the top-level folder name is used.
Edits made here to a vault note are not written back and are replaced
the next time its file changes.

## Example

` + "```" + `json
{"title": "Roadmap", "category": "work", "content": "Q3 goals. See [[Hiring plan]]."}
` + "```" + `
`
