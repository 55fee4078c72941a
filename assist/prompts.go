package assist

import (
	"fmt"
	"strings"
)

func breakdownPrompt(title, description string) string {
	return fmt.Sprintf(`You are a productivity expert. Break down the following task into clear, actionable subtasks.

Task Title: %s
Task Description: %s

Please provide:
1. A brief analysis of the task
2. 5-8 specific, actionable subtasks (numbered)
3. Estimated time for each subtask
4. Any dependencies between subtasks
5. Tips for successful completion

Format your response in a clear, organized markdown format.`, title, description)
}

func reminderPrompt(title, description, deadline, priority, signature string) string {
	return fmt.Sprintf(`Generate a friendly but professional email reminder for the following task:

Task: %s
Description: %s
Deadline: %s
Priority: %s

The email should:
1. Start with a friendly greeting
2. Remind about the task and its importance
3. Mention the deadline and urgency (Priority: %s)
4. Provide a brief motivational message
5. End with an encouraging note
6. Keep it concise (max 150 words)
7. It should end with %s

Write the email in a warm, encouraging tone.`, title, description, deadline, priority, priority, signature)
}

func suggestionsPrompt(completed []string) string {
	var list strings.Builder
	for i, title := range completed {
		if i > 0 {
			list.WriteByte('\n')
		}
		list.WriteString("- ")
		list.WriteString(title)
	}
	return fmt.Sprintf(`Based on these completed tasks:

%s

Suggest 3-5 logical next tasks or related tasks that would be good to tackle next.
Consider natural progressions, related skills, and complementary activities.

Return only the task titles as a simple bullet list.`, list.String())
}
