package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/moodlog/internal/journal"
	"github.com/chris/moodlog/internal/mood"
	"github.com/chris/moodlog/internal/scheduler"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	if isDM {
		if err := b.notes.SetNote(scheduler.DiscordUserNote, m.Author.ID); err != nil {
			log.Printf("discord: remembering DM user: %v", err)
		}
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	for _, chunk := range splitMessage(handleText(b.journal, content), 2000) {
		s.ChannelMessageSend(m.ChannelID, chunk)
	}
}

// handleText turns a chat message into a journal action and returns the reply.
// Messages are either "help" or a mood, optionally prefixed with "log".
func handleText(j *journal.Journal, content string) string {
	text := strings.ToLower(strings.TrimSpace(content))
	if text == "help" || text == "?" {
		return helpText()
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "log "))

	level, err := mood.ParseLevel(text)
	if err != nil {
		return "I didn't catch a mood there. " + helpText()
	}
	_, ev, err := j.LogMood(level, mood.SourceManual)
	if err != nil {
		if errors.Is(err, mood.ErrUnknownMood) {
			return helpText()
		}
		log.Printf("discord: logging mood: %v", err)
		return "Something went wrong. Try again?"
	}
	reply := fmt.Sprintf("Logged %s.", level)
	if ev != nil {
		reply += fmt.Sprintf(" (%s on its way)", ev.Type)
	}
	return reply
}

func helpText() string {
	return "Send one of: " + strings.Join(mood.LevelNames(), ", ") + " (or 0-6)."
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
