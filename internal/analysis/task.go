// Package analysis is the stateless request façade: it validates analysis requests,
// builds Gemma chat-turn prompts, calls the model adapter and maps results to the
// wire envelopes in pkg/types.
package analysis

// TaskType selects the instruction prefix placed before the user's text.
type TaskType string

const (
	TaskGeneral           TaskType = "general"
	TaskClinicalQA        TaskType = "clinical_qa"
	TaskTextAnalysis      TaskType = "text_analysis"
	TaskSearchEnhancement TaskType = "search_enhancement"
	TaskImageAnalysis     TaskType = "image_analysis"
)

// DefaultPrefix is used for general and unrecognized task types.
const DefaultPrefix = "Provide medical assistance for:"

var prefixes = map[TaskType]string{
	TaskClinicalQA:        "Answer this clinical question based on medical knowledge:",
	TaskTextAnalysis:      "Analyze the following clinical text and provide insights:",
	TaskSearchEnhancement: "Convert this query to medical terminology:",
	TaskImageAnalysis:     "Analyze this radiology finding:",
}

// Prefix returns the instruction for t, falling back to DefaultPrefix.
func (t TaskType) Prefix() string {
	if p, ok := prefixes[t]; ok {
		return p
	}
	return DefaultPrefix
}

// Known reports whether t has a dedicated prefix or is the general type.
func (t TaskType) Known() bool {
	_, ok := prefixes[t]
	return ok || t == TaskGeneral
}
