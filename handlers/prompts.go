package handlers

import "fmt"

// The exact wording is part of the contract with the generation service.
const (
	summaryPromptTemplate = `
Summarize the following transcript clearly:

%s
`

	askPromptTemplate = `
You are answering questions about an audio or video transcript.

Transcript:
%s

Question:
%s

Answer only using information present in the transcript.
If the transcript does not contain the answer, say so.
`
)

// BuildSummaryPrompt embeds the transcript verbatim in the summarization prompt.
func BuildSummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPromptTemplate, transcript)
}

// BuildAskPrompt embeds the transcript and question verbatim and restricts
// the answer to what the transcript contains.
func BuildAskPrompt(transcript, question string) string {
	return fmt.Sprintf(askPromptTemplate, transcript, question)
}
