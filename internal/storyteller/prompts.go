package storyteller

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dotcommander/bedtime/internal/story"
)

// Category-specific storytelling guidance, keyed by category. The guidance
// shapes the structure the model is asked for; the surrounding requirements
// are shared across categories.
var categoryGuidance = map[story.Category]string{
	story.CategoryAdventure: `Focus on exciting journeys and discoveries. Include:
- A clear quest or goal for the protagonist
- Obstacles that require courage and creativity to overcome
- A sense of wonder and exploration
- Positive resolution that rewards bravery and persistence`,

	story.CategoryFriendship: `Emphasize relationships and social connections. Include:
- Characters learning to work together
- Themes of kindness, empathy, and understanding
- Conflict resolution through communication
- The value of helping others and being a good friend`,

	story.CategoryMagical: `Create wonder through fantasy elements. Include:
- Magical creatures or powers used responsibly
- Enchanted settings that spark imagination
- Magic that comes with lessons about responsibility
- Wonder and awe balanced with gentle life lessons`,

	story.CategoryAnimal: `Feature animal characters with relatable qualities. Include:
- Animals with distinct personalities and traits
- Natural behaviors woven into the story
- Themes of cooperation in nature
- Environmental awareness and respect for wildlife`,

	story.CategoryEducational: `Weave learning naturally into the narrative. Include:
- Educational content integrated seamlessly into the plot
- Characters discovering new concepts through experience
- Problem-solving that demonstrates learning principles
- Curiosity and exploration as driving forces`,

	story.CategoryMystery: `Create gentle mysteries appropriate for young minds. Include:
- Puzzles that can be solved through observation and logic
- Clues that are discoverable and age-appropriate
- Characters working together to solve problems
- Satisfying revelations that make sense to children`,

	story.CategoryFamily: `Explore family dynamics and relationships. Include:
- Different family structures and traditions
- Themes of love, support, and belonging
- Generational wisdom and learning
- Celebration of what makes families special`,
}

// GuidanceFor returns the category guidance, falling back to the default
// category's guidance for anything unknown.
func GuidanceFor(category story.Category) string {
	if g, ok := categoryGuidance[category]; ok {
		return g
	}
	return categoryGuidance[story.DefaultCategory]
}

const storyPromptText = `You are a master storyteller specializing in bedtime stories for children aged 5-10.

STORY REQUEST: {{.Request}}

CATEGORY-SPECIFIC GUIDANCE:
{{.Guidance}}

STORY REQUIREMENTS:
- Length: {{.Length}} ({{.MinWords}}-{{.MaxWords}} words)
- Age-appropriate language and themes for ages 5-10
- Engaging narrative with a clear beginning, middle, and end
- Positive, comforting resolution suitable for bedtime
- Include a gentle moral or lesson naturally woven into the story
- Use vivid but not overstimulating imagery
- Create relatable characters children can connect with

STORY STRUCTURE:
1. Engaging opening that sets the scene
2. Character introduction with clear motivations
3. Conflict or challenge that drives the plot
4. Character growth and problem-solving
5. Satisfying, peaceful resolution
6. Subtle moral lesson or positive message

TONE AND STYLE:
- Warm, nurturing, and comforting
- Use simple but rich vocabulary
- Include dialogue to bring characters to life
- Create a sense of wonder and imagination
- End on a calm, reassuring note perfect for bedtime
{{- if .RevisionNotes}}

REVISION NOTES: {{.RevisionNotes}}
Incorporate these suggestions while preserving the story's category, core premise and bedtime appeal, unless the notes explicitly ask for a premise change.
{{- end}}`

var storyPrompt = template.Must(template.New("story").Parse(storyPromptText))

type storyPromptData struct {
	Request       string
	Guidance      string
	Length        story.Length
	MinWords      int
	MaxWords      int
	RevisionNotes string
}

func renderStoryPrompt(data storyPromptData) (string, error) {
	var buf bytes.Buffer
	if err := storyPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing story prompt template: %w", err)
	}
	return buf.String(), nil
}

const classifierSystemPrompt = `You are a story categorization expert. Based on the user's request, categorize it into one of these categories:
- adventure: stories involving journeys, quests, or exciting experiences
- friendship: stories about relationships, cooperation, and social bonds
- magical: stories with fantasy elements, magic, or supernatural themes
- animal: stories primarily featuring animals as main characters
- educational: stories that teach concepts, facts, or skills
- mystery: stories involving puzzles, secrets, or problem-solving
- family: stories about family relationships and dynamics

Respond with only the category name in lowercase.`

const charactersSystemPrompt = `Extract the main character names from this story. Return only the names, separated by commas. If no specific names are given, describe the characters (e.g., 'little girl', 'wise owl').`

const moralSystemPrompt = `What is the main moral lesson or positive message in this bedtime story? Respond with a single sentence that captures the key takeaway for children.`
