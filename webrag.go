// Package webrag indexes arbitrary web pages into a locally stored,
// searchable representation and answers natural language questions against
// it, attaching source citations to every answer. It crawls pages, extracts
// their main content as markdown, chunks and embeds the text, stores the
// vectors locally, and assembles grounded answers from retrieved passages.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, openai/, trafilatura/) or
// their concern (e.g., crawl/, index/, answer/).
package webrag
