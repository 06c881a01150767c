package mcpserver

// QuerySyntax describes the search query language shared by the web API,
// the terminal UI and the list_nodes tool.
const QuerySyntax = `# Roadmap Search Query Syntax

A query is a whitespace-separated list of tokens. Tokens are matched
case-insensitively.

## Reserved tokens

| Token                     | Effect                                   |
|---------------------------|------------------------------------------|
| ` + "`is:pending`" + `              | only nodes not started                   |
| ` + "`is:progress`" + `             | only nodes in progress                   |
| ` + "`is:completed`" + `            | only completed nodes                     |
| ` + "`is:fav`, `is:favorite`" + `   | only favorite nodes                      |
| ` + "`cat:<name>`" + `              | only nodes whose category equals <name>  |

When several status tokens appear, the last one wins. The same holds for
` + "`cat:`" + ` tokens. Category values are compared literally after
lowercasing, so ` + "`cat:css`" + ` matches a node in category "CSS" but not "CSS Layout".

## Free text

Every other token must appear as a substring of the node's title, category
or tags. All free-text tokens must match.

## Ordering

Results are always returned in display order (the node ` + "`order`" + ` field),
regardless of how the query was written.

## Examples

- ` + "`is:completed cat:css`" + ` completed CSS nodes
- ` + "`react is:fav`" + ` favorite nodes mentioning react
- ` + "`is:progress`" + ` what is being worked on right now
`
