package evaluation

import (
	"strconv"
	"strings"

	_ "embed"
)

//go:embed cv_prompt.md
var cvPromptTemplate string

//go:embed project_prompt.md
var projectPromptTemplate string

//go:embed summary_prompt.md
var summaryPromptTemplate string

const noContextPlaceholder = "(no reference material retrieved)"

// ComposeCVPrompt renders the CV evaluation prompt from the job title, the
// retrieved reference fragments and the candidate text.
func ComposeCVPrompt(jobTitle string, context []string, cvText string) string {
	prompt := strings.ReplaceAll(cvPromptTemplate, "{{JOB_TITLE}}", jobTitle)
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT}}", joinContext(context))
	return strings.ReplaceAll(prompt, "{{CV_TEXT}}", cvText)
}

// ComposeProjectPrompt renders the project evaluation prompt from the
// retrieved reference fragments and the project report text.
func ComposeProjectPrompt(context []string, projectText string) string {
	prompt := strings.ReplaceAll(projectPromptTemplate, "{{CONTEXT}}", joinContext(context))
	return strings.ReplaceAll(prompt, "{{PROJECT_TEXT}}", projectText)
}

// ComposeSummaryPrompt renders the synthesis prompt from both stage results.
func ComposeSummaryPrompt(cv CVResult, project ProjectResult) string {
	prompt := strings.ReplaceAll(summaryPromptTemplate, "{{MATCH_RATE}}", formatScore(cv.MatchRate))
	prompt = strings.ReplaceAll(prompt, "{{CV_FEEDBACK}}", cv.Feedback)
	prompt = strings.ReplaceAll(prompt, "{{PROJECT_SCORE}}", formatScore(project.ProjectScore))
	return strings.ReplaceAll(prompt, "{{PROJECT_FEEDBACK}}", project.Feedback)
}

func joinContext(context []string) string {
	if len(context) == 0 {
		return noContextPlaceholder
	}
	return strings.Join(context, "\n\n")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
