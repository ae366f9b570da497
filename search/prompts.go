package search

import "fmt"

func selectionPrompt(query string, n int) string {
	return fmt.Sprintf(`For this query: %q
Determine the %d best URLs to visit to find the information.
Return only the URLs, one per line.
The URLs must be complete and valid.`, query, n)
}

func summaryPrompt(sourceURL, content, query string) string {
	return fmt.Sprintf(`Analyze this content from %s: %s
With respect to the question: %q
Extract the relevant information and return one short sentence.`, sourceURL, content, query)
}

func synthesisPrompt(summariesJSON, query string) string {
	return fmt.Sprintf(`Using this information: %s
Write a natural, concise answer to the question: %q

Rules:
1. Answer in ONE clear, direct sentence.
2. Focus on the most relevant information.
3. Use a conversational tone.
4. If the information is incomplete, simply say so.`, summariesJSON, query)
}
