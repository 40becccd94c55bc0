// Package report renders crawl archive summaries in multiple output
// formats.
//
// Two formats are provided: JSON for tool integration and a plain text
// format for terminal display. A MultiWriter fans one report out to
// several destinations, such as a terminal and a file at once.
package report
