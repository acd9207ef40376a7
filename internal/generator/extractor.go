package generator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParsedBlock is the raw object decoded from one fenced JSON block. It stays
// loosely typed until the mapper normalizes it.
type ParsedBlock map[string]interface{}

// Diagnostic records a complete block that failed to parse after the repair
// pass. Dropped blocks never abort a run.
type Diagnostic struct {
	Index   int
	Err     error
	Snippet string
}

// BlockExtractor incrementally pulls fenced json blocks out of a growing
// buffer. Callers hand it the full accumulated buffer after every delta; a
// block is handled exactly once, tracked by its ordinal position among the
// complete json blocks. Calling Extract again with no new data yields
// nothing.
type BlockExtractor struct {
	consumed    int
	diagnostics []Diagnostic
}

// NewBlockExtractor creates a new extractor for one session
func NewBlockExtractor() *BlockExtractor {
	return &BlockExtractor{}
}

// Extract scans buffer for complete fenced json blocks and parses any block
// not yet seen. A block is complete only when both its opening and closing
// fences are present; a truncated trailing block is left for a later call.
func (e *BlockExtractor) Extract(buffer string) []ParsedBlock {
	bodies := scanJSONBlocks(buffer)

	var parsed []ParsedBlock
	for i := e.consumed; i < len(bodies); i++ {
		e.consumed++
		block, err := parseBlock(bodies[i])
		if err != nil {
			e.diagnostics = append(e.diagnostics, Diagnostic{
				Index:   i,
				Err:     err,
				Snippet: snippet(bodies[i], 200),
			})
			continue
		}
		parsed = append(parsed, block)
	}
	return parsed
}

// Diagnostics returns the drop records accumulated so far
func (e *BlockExtractor) Diagnostics() []Diagnostic {
	return e.diagnostics
}

// scanJSONBlocks returns the bodies of all complete json-tagged fenced
// blocks in document order. A fence opens with three backticks immediately
// followed by the literal "json" and optional whitespace, then a newline;
// it closes at the next three backticks. Blocks with any other tag are
// consumed and ignored.
func scanJSONBlocks(buffer string) []string {
	var bodies []string
	pos := 0
	for {
		open := strings.Index(buffer[pos:], "```")
		if open < 0 {
			return bodies
		}
		open += pos

		tagStart := open + 3
		newline := strings.IndexByte(buffer[tagStart:], '\n')
		if newline < 0 {
			// Opening fence whose tag line is still streaming in.
			return bodies
		}
		tag := buffer[tagStart : tagStart+newline]
		bodyStart := tagStart + newline + 1

		closing := strings.Index(buffer[bodyStart:], "```")
		if closing < 0 {
			// Closing fence not present yet; the block is not complete.
			return bodies
		}
		bodyEnd := bodyStart + closing

		if isJSONTag(tag) {
			bodies = append(bodies, buffer[bodyStart:bodyEnd])
		}
		pos = bodyEnd + 3
	}
}

// isJSONTag reports whether a fence tag line is exactly "json" plus
// optional whitespace
func isJSONTag(tag string) bool {
	rest, ok := strings.CutPrefix(tag, "json")
	if !ok {
		return false
	}
	return strings.TrimSpace(rest) == ""
}

// parseBlock decodes one block body, retrying once after the repair pass
func parseBlock(body string) (ParsedBlock, error) {
	var block ParsedBlock
	if err := json.Unmarshal([]byte(body), &block); err == nil {
		return block, nil
	}

	repaired := repairJSON(body)
	var retried ParsedBlock
	if err := json.Unmarshal([]byte(repaired), &retried); err != nil {
		return nil, err
	}
	return retried, nil
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON applies the bounded repair pass: strip trailing commas before
// closing braces/brackets, then normalize single quotes to double quotes.
// Anything this cannot fix is dropped by the caller; no relaxed-JSON
// parsing beyond these two rewrites is attempted.
func repairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "'", `"`)
	return s
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
