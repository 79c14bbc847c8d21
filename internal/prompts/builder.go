package prompts

import (
	"strings"
)

// PromptBuilder provides methods for building AI prompts
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildTailoringPrompt generates the gap analysis prompt for one resume and
// job description
func (pb *PromptBuilder) BuildTailoringPrompt(resumeText, jobDescription string) string {
	var prompt strings.Builder

	prompt.WriteString(ResumeWriterRole)
	prompt.WriteString(".\n\n")
	prompt.WriteString(TailoringInstructions)
	prompt.WriteString("\n\n")
	prompt.WriteString(TailoringGuidelines)
	prompt.WriteString("\n\n")
	prompt.WriteString(TargetTextRules)
	prompt.WriteString("\n\n")
	prompt.WriteString(JSONStructureExample)
	prompt.WriteString("\n\n")

	pb.addDocument(&prompt, JobDescriptionHeader, jobDescription)
	pb.addDocument(&prompt, ResumeHeader, resumeText)

	return prompt.String()
}

// addDocument appends a fenced document so its text is unambiguous. Fences
// inside the text are defused so a scraped page cannot close the block early.
func (pb *PromptBuilder) addDocument(prompt *strings.Builder, header, text string) {
	prompt.WriteString(header)
	prompt.WriteString("\n\n```text\n")
	prompt.WriteString(strings.ReplaceAll(strings.TrimRight(text, "\n"), "```", "'''"))
	prompt.WriteString("\n```\n\n")
}
