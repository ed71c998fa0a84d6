package recommend

import (
	"strconv"
	"strings"

	"github.com/edgard/middleman/internal/database"
)

// Template placeholders.
const (
	PlaceholderCreatorName        = "{{creator_name}}"
	PlaceholderFanName            = "{{fan_name}}"
	PlaceholderLifetimeSpend      = "{{lifetime_spend}}"
	PlaceholderCreatorNiche       = "{{creator_niche}}"
	PlaceholderCreatorPersonality = "{{creator_personality}}"
	PlaceholderEmojisEnabled      = "{{emojis_enabled}}"
	PlaceholderNSFWEnabled        = "{{nsfw_enabled}}"
	PlaceholderEmojisUsed         = "{{emojis_used}}"
	PlaceholderChatLogs           = "{{chat logs}}"
)

const (
	defaultCreatorName = "Creator"
	defaultFanName     = "Fan"
	emptyTags          = "None"
	emptyHistory       = "No previous chat history."
	samplesHeader      = "\n\nSample conversation examples:\n"
)

// RenderPrompt fills the placeholders of tmpl and appends the sample
// conversations. creator and fan may be nil. Unknown placeholders are kept.
func RenderPrompt(tmpl string, creator *database.Creator, fan *database.Fan, history []Turn) string {
	if creator == nil {
		creator = &database.Creator{}
	}
	if fan == nil {
		fan = &database.Fan{}
	}

	r := strings.NewReplacer(
		PlaceholderCreatorName, orDefault(creator.Name, defaultCreatorName),
		PlaceholderFanName, orDefault(fan.Name, defaultFanName),
		PlaceholderLifetimeSpend, strconv.FormatFloat(fan.LifetimeSpend, 'f', -1, 64),
		PlaceholderCreatorNiche, joinTags(creator.Niches),
		PlaceholderCreatorPersonality, joinTags(creator.Persona),
		PlaceholderEmojisEnabled, yesNo(creator.EmojisEnabled),
		PlaceholderNSFWEnabled, yesNo(creator.NSFW),
		PlaceholderEmojisUsed, strings.Join(creator.EmojisUsed, ", "),
		PlaceholderChatLogs, renderChatLogs(history),
	)

	return r.Replace(tmpl) + samplesHeader + SampleConversations
}

func renderChatLogs(history []Turn) string {
	if len(history) == 0 {
		return emptyHistory
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, "["+t.Role+"]: "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return emptyTags
	}
	return strings.Join(tags, ", ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
