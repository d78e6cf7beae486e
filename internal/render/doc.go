// Package render formats backend answers for terminal display.
//
// Answers arrive as markdown. Renderer parses them with goldmark and
// walks the AST directly, emitting ANSI-styled plain text instead of
// HTML. Headings, emphasis, code, lists, and links keep their content
// with terminal styling applied via fatih/color, which handles NO_COLOR
// and non-TTY output automatically.
//
// Response formats a whole query response: one section per sub-answer
// when the backend decomposed the prompt into multiple questions, with
// failed questions in red, clarification questions in yellow, and
// citations as dim footnotes.
package render
