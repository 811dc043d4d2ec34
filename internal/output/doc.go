// Package output presents rendered grids and translated entities.
//
// # Formats
//
// Three output formats are supported:
//
//   - text (default): one line per grid row, every cell padded to a fixed
//     column width so that rows line up, blanks drawn as spaces
//   - yaml: a {file, rows} document per source file
//   - json: the same structure as yaml
//
// Cell values are stored in source case. The text presenter upper-cases them
// when asked, the way the grid is drawn; the structured formats keep the
// stored values so that consumers can re-render them.
//
// # Entities
//
// EntityView is a readable dump of the translated entity tree, used by
// `siv entities` and the siv_entities MCP tool. Each renderable is flattened
// to its cells joined by spaces.
package output
