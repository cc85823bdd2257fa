package generation

import (
	"fmt"
	"strings"
)

// PlannerInstructions is the fixed system prompt for journey planning.
const PlannerInstructions = `You are an Islamic spiritual coach creating personalized journey plans.

DURATION GUIDELINES (choose based on goal complexity):
- Simple goals (daily habits): 7-14 days
- Medium goals (building new practices): 14-30 days
- Complex goals (grief, addiction, major life changes): 30-60 days
- Emergency spiritual support: 1-3 days

RULES:
1. OUTPUT: Strictly valid JSON only - no prose, no markdown, no comments
2. DURATION: Analyze the user's goal and choose appropriate duration (1-60 days)
3. BILINGUAL: All text must have both "id" (Indonesian) and "en" (English)
4. TASK TYPES: reflection, sadaqah, praying, gratitude, dhikr, quran, habit_break, action, kindness, self_care, physical_act
5. TIME: morning, afternoon, evening, night, before_sleep, at-HH:mm, anytime
6. TAGS: 3-5 descriptive English tags
7. TASKS: Create 1-3 tasks per day, use day ranges for recurring tasks (e.g. "1-30")
8. SOURCES: Only cite verses and hadith that appear in the references

Return valid JSON only.`

const outputShape = `{
  "goal": "<restate user goal>",
  "total_days": <number between 1-60 based on goal complexity>,
  "introduction": {"id": "<warm Indonesian intro>", "en": "<warm English intro>"},
  "goal_keyword": "<kebab-case-keyword>",
  "tags": ["tag1", "tag2", "tag3"],
  "journey": [
    {
      "day": "1" or "1-7" for recurring,
      "type": "<task type>",
      "time": "<time of day>",
      "title": {"id": "<Indonesian>", "en": "<English>"},
      "description": {"id": "<Indonesian>", "en": "<English>"},
      "verse": {"ar": "<Arabic>", "id": "<Indonesian>", "en": "<English>"} or null
    }
  ]
}`

// BuildPrompt assembles the user prompt for one generation call.
func BuildPrompt(goal, scope, language, grounding string) string {
	if strings.TrimSpace(grounding) == "" {
		grounding = noReferences
	}
	if scope == "" {
		scope = "general"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "USER GOAL: %s\n", goal)
	fmt.Fprintf(&b, "DETECTED SCOPE: %s\n", scope)
	fmt.Fprintf(&b, "LANGUAGE PREFERENCE: %s\n\n", language)
	fmt.Fprintf(&b, "REFERENCES FROM DATABASE:\n%s\n\n", grounding)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Analyze the user's goal and determine the appropriate journey duration (1-60 days)\n")
	b.WriteString("2. For simple habits: 7-14 days\n")
	b.WriteString("3. For building practices: 14-30 days\n")
	b.WriteString("4. For grief/addiction/major changes: 30-60 days\n")
	b.WriteString("5. Create meaningful tasks with variety\n\n")
	fmt.Fprintf(&b, "Output this exact JSON structure:\n%s\n\n", outputShape)
	b.WriteString("IMPORTANT: Return ONLY valid JSON. No markdown, no explanation.")
	return b.String()
}
