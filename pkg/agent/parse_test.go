package agent

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeImageID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[IMAGE-ID abc123def456]", "abc123def456"},
		{"  abc123def456  ", "abc123def456"},
		{"abc123def456", "abc123def456"},
		{"[IMAGE-ID  spaced ]", "spaced"},
	}
	for _, c := range cases {
		if got := SanitizeImageID(c.in); got != c.want {
			t.Errorf("SanitizeImageID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractAttachmentIDsFromJSON(t *testing.T) {
	text := "Here are your receipts.\n```json\n{\"attachments\": [\"[IMAGE-ID aaa111]\", \"[IMAGE-ID bbb222]\"]}\n```\nAnything else?"

	sanitized, ids := ExtractAttachmentIDs(text)

	if !reflect.DeepEqual(ids, []string{"aaa111", "bbb222"}) {
		t.Errorf("unexpected ids: %v", ids)
	}
	if strings.Contains(sanitized, "```json") {
		t.Errorf("JSON block not stripped: %q", sanitized)
	}
	if !strings.Contains(sanitized, "Here are your receipts.") ||
		!strings.Contains(sanitized, "Anything else?") {
		t.Errorf("surrounding text lost: %q", sanitized)
	}
}

func TestExtractAttachmentIDsMalformedJSON(t *testing.T) {
	// Trailing comma makes the JSON invalid; IDs are scraped by pattern
	text := "Done.\n```json\n{\"attachments\": [\"[IMAGE-ID ccc333]\",]}\n```"

	sanitized, ids := ExtractAttachmentIDs(text)

	if !reflect.DeepEqual(ids, []string{"ccc333"}) {
		t.Errorf("unexpected ids from fallback: %v", ids)
	}
	if strings.Contains(sanitized, "```json") {
		t.Errorf("JSON block not stripped: %q", sanitized)
	}
}

func TestExtractAttachmentIDsNoBlock(t *testing.T) {
	text := "No attachments here."
	sanitized, ids := ExtractAttachmentIDs(text)
	if ids != nil {
		t.Errorf("expected no ids, got %v", ids)
	}
	if sanitized != text {
		t.Errorf("text should be unchanged, got %q", sanitized)
	}
}

func TestExtractThinkingProcess(t *testing.T) {
	text := "# THINKING PROCESS\nThe user asked for totals.\nI summed the receipts.\n\n# FINAL RESPONSE\nYou spent $42 this month."

	answer, thinking := ExtractThinkingProcess(text)

	if thinking != "The user asked for totals.\nI summed the receipts." {
		t.Errorf("unexpected thinking: %q", thinking)
	}
	if answer != "You spent $42 this month." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestExtractThinkingProcessCutsAtAttachments(t *testing.T) {
	text := "# THINKING PROCESS\nreasoning\n\n# FINAL RESPONSE\nHere it is.\n\n# ATTACHMENTS\nleftover"

	answer, thinking := ExtractThinkingProcess(text)

	if thinking != "reasoning" {
		t.Errorf("unexpected thinking: %q", thinking)
	}
	if answer != "Here it is." {
		t.Errorf("answer should stop at ATTACHMENTS, got %q", answer)
	}
}

func TestExtractThinkingProcessMissingSections(t *testing.T) {
	answer, thinking := ExtractThinkingProcess("Just a plain reply.")
	if thinking != "" {
		t.Errorf("expected empty thinking, got %q", thinking)
	}
	if answer != "Just a plain reply." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestParseReplyFullShape(t *testing.T) {
	text := `# THINKING PROCESS
Looked up the grocery receipts.

# FINAL RESPONSE
Found two receipts from last week.

# ATTACHMENTS
` + "```json\n{\"attachments\": [\"[IMAGE-ID dead00beef12]\"]}\n```"

	reply := ParseReply(text)

	if reply.Thinking != "Looked up the grocery receipts." {
		t.Errorf("unexpected thinking: %q", reply.Thinking)
	}
	if reply.Answer != "Found two receipts from last week." {
		t.Errorf("unexpected answer: %q", reply.Answer)
	}
	if !reflect.DeepEqual(reply.AttachmentIDs, []string{"dead00beef12"}) {
		t.Errorf("unexpected attachments: %v", reply.AttachmentIDs)
	}
}

func TestParseReplyPlainText(t *testing.T) {
	reply := ParseReply("Hello! How can I help with your expenses?")
	if reply.Answer != "Hello! How can I help with your expenses?" {
		t.Errorf("unexpected answer: %q", reply.Answer)
	}
	if reply.Thinking != "" || len(reply.AttachmentIDs) != 0 {
		t.Errorf("plain reply should have no extras: %+v", reply)
	}
}

func TestBuildContent(t *testing.T) {
	images := []StoredImage{
		{ID: "aaa111bbb222", Data: []byte("png"), MIMEType: "image/png"},
	}
	content := BuildContent("what did I buy?", images)

	if content.Role != "user" {
		t.Errorf("unexpected role: %s", content.Role)
	}
	if len(content.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(content.Parts))
	}
	if content.Parts[0].InlineData == nil || content.Parts[0].InlineData.MIMEType != "image/png" {
		t.Errorf("first part should be the inline image: %+v", content.Parts[0])
	}
	if content.Parts[1].Text != "[IMAGE-ID aaa111bbb222]" {
		t.Errorf("unexpected placeholder: %q", content.Parts[1].Text)
	}
	if content.Parts[2].Text != "what did I buy?" {
		t.Errorf("unexpected text part: %q", content.Parts[2].Text)
	}
}

func TestBuildContentBlankText(t *testing.T) {
	content := BuildContent("", nil)
	if len(content.Parts) != 1 || content.Parts[0].Text != " " {
		t.Errorf("blank text should become a single space: %+v", content.Parts)
	}
}
