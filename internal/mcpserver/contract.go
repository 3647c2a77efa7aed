package mcpserver

// BlockMappingURI identifies the block mapping resource.
const BlockMappingURI = "inkwell://block-mapping"

// BlockMappingContract documents how inkwell turns page blocks into HTML
// and into simplified JSON trees.
const BlockMappingContract = `# Inkwell Block Mapping

## HTML renderer

| Block type  | Fragment                                          |
|-------------|---------------------------------------------------|
| heading_1   | ` + "`<h4>TEXT</h4>`" + `                                  |
| heading_2   | ` + "`<h5>TEXT</h5>`" + `                                  |
| paragraph   | ` + "`<p class='mt-3 text-muted'>TEXT</p>`" + `            |
| code        | ` + "`<pre><code class='LANGUAGE'>TEXT</code></pre>`" + `  |
| image       | ` + "`<img src='URL' alt='image'/>`" + `                   |
| other types | dropped with a warning                            |

TEXT is the first rich-text run of the block, HTML-escaped.
The first fragment becomes the page subtitle; the rest form the body.
A page needs at least one fragment and at least three keywords.
Output file: the record title with spaces replaced by underscores, plus ` + "`.html`" + `.

## Tree simplifier

Each kept block becomes ` + "`{\"id\", \"type\", \"text\", \"children\"}`" + `:

- ` + "`code`" + ` and ` + "`image`" + ` blocks are skipped, as are unknown types.
- ` + "`text`" + ` is the plain text of the first rich-text run.
- ` + "`children`" + ` is present only when the block has non-empty children.
- A failed child fetch leaves the block without children.
`
