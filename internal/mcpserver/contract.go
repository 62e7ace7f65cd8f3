package mcpserver

// ArticleFormatContract describes how LLM consumers should structure
// articles they create in the knowledge tree.
const ArticleFormatContract = `# Othala Article Format Contract

Every article stored in Othala SHOULD follow this structure.

## Structure

` + "```" + `markdown
# Human-readable title

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Paths** are slash-delimited folder names from the root, e.g.
   ` + "`" + `Projects/Phoenix/notes.md` + "`" + `. Folders along the path must already exist;
   use list_children to discover them.
2. **Article names** conventionally end with ` + "`" + `.md` + "`" + `; folder names do not.
3. **Names are unique per folder.** Creating a duplicate name fails; read
   the existing article and update your plan instead.
4. **Content** is Markdown. Tables, strikethrough, and hard line breaks are
   supported. Raw HTML is stripped on display.
5. **Read-only subtrees** (e.g. ` + "`" + `Companies/` + "`" + `) are mirrored from upstream
   systems. Do not try to write there.

## Context documents

The get_context tool assembles everything relevant to a node: articles at
each ancestry level, shallowest first, plus the contents of attached
folders. Headings deepen with tree depth, so the broadest context comes
first. Use it to ground answers about a customer, project, or device.
`
