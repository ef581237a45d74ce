package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The engine replies in a fixed markdown shape:
//
//	# THINKING PROCESS
//	<reasoning>
//
//	# FINAL RESPONSE
//	<answer>
//
//	# ATTACHMENTS
//	```json
//	{"attachments": ["[IMAGE-ID abc123def456]"]}
//	```
//
// The parsing below tolerates missing sections and malformed JSON.
var (
	thinkingHeading    = regexp.MustCompile(`(?m)^#\s*THINKING PROCESS[ \t]*\n?`)
	finalHeading       = regexp.MustCompile(`(?m)^#\s*FINAL RESPONSE[ \t]*\n?`)
	attachmentsHeading = regexp.MustCompile(`(?m)^#\s*ATTACHMENTS[ \t]*\n?`)
	jsonBlockPattern   = regexp.MustCompile("(?s)```json\\s*(\\{[^`]*?\\})\\s*```")
	imageIDPattern     = regexp.MustCompile(`\[IMAGE-ID\s+([^\]]+)\]`)
)

// Reply is the engine's markdown response broken into its parts
type Reply struct {
	Answer        string
	Thinking      string
	AttachmentIDs []string
}

// ParseReply splits an engine reply into answer, thinking process and
// attachment IDs. Attachment extraction runs first so the JSON block is
// stripped wherever the engine happened to place it.
func ParseReply(text string) *Reply {
	sanitized, ids := ExtractAttachmentIDs(text)
	answer, thinking := ExtractThinkingProcess(sanitized)
	return &Reply{
		Answer:        answer,
		Thinking:      thinking,
		AttachmentIDs: ids,
	}
}

// SanitizeImageID strips the "[IMAGE-ID ...]" wrapper from an attachment
// reference, returning the bare hash
func SanitizeImageID(id string) string {
	if strings.HasPrefix(id, "[IMAGE-") {
		if _, after, found := strings.Cut(id, "ID "); found {
			id, _, _ = strings.Cut(after, "]")
		}
	}
	return strings.TrimSpace(id)
}

// ExtractAttachmentIDs pulls attachment hash IDs out of a ```json fenced
// block and removes the block from the text. When the JSON does not parse,
// IDs are scraped from the block with the [IMAGE-ID ...] pattern instead.
func ExtractAttachmentIDs(text string) (string, []string) {
	match := jsonBlockPattern.FindStringSubmatch(text)
	if match == nil {
		return text, nil
	}

	var ids []string
	var payload struct {
		Attachments []string `json:"attachments"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &payload); err == nil {
		for _, a := range payload.Attachments {
			if id := SanitizeImageID(a); id != "" {
				ids = append(ids, id)
			}
		}
	} else {
		for _, m := range imageIDPattern.FindAllStringSubmatch(match[1], -1) {
			if id := SanitizeImageID(strings.TrimSpace(m[1])); id != "" {
				ids = append(ids, id)
			}
		}
	}

	sanitized := strings.TrimSpace(strings.Replace(text, match[0], "", 1))
	return sanitized, ids
}

// ExtractThinkingProcess separates the thinking section from the final
// answer. When a FINAL RESPONSE heading exists the answer is just that
// section, cut at the ATTACHMENTS heading if one follows.
func ExtractThinkingProcess(text string) (string, string) {
	thinking := ""
	sanitized := text

	if tLoc := thinkingHeading.FindStringIndex(text); tLoc != nil {
		end := len(text)
		if fLoc := finalHeading.FindStringIndex(text); fLoc != nil && fLoc[0] >= tLoc[1] {
			end = fLoc[0]
		}
		thinking = strings.TrimSpace(text[tLoc[1]:end])
		sanitized = text[:tLoc[0]] + text[end:]
	}

	if fLoc := finalHeading.FindStringIndex(sanitized); fLoc != nil {
		rest := sanitized[fLoc[1]:]
		if aLoc := attachmentsHeading.FindStringIndex(rest); aLoc != nil {
			rest = rest[:aLoc[0]]
		}
		sanitized = rest
	}

	return strings.TrimSpace(sanitized), thinking
}
