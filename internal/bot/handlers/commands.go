package handlers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-telegram/bot/models"
)

// Command names handled by the router.
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandCatify = "catify"
	CommandImage  = "image"
)

// command is a parsed "/name@target payload" message.
type command struct {
	Name    string
	Target  string
	Payload string
}

// parseCommand splits text into a command. ok is false when text does not
// start with '/'. The payload is everything after the first token with leading
// whitespace removed.
func parseCommand(text string) (cmd command, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return command{}, false
	}

	token, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		token, rest = text[:i], text[i:]
	}

	name, target, _ := strings.Cut(token[1:], "@")
	return command{
		Name:    strings.ToLower(name),
		Target:  target,
		Payload: strings.TrimLeftFunc(rest, unicode.IsSpace),
	}, true
}

// addressedTo reports whether the command targets the bot. Commands without an
// @suffix, or sent before the bot identity is known, are accepted.
func (c command) addressedTo(me *models.User) bool {
	if c.Target == "" || me == nil || me.Username == "" {
		return true
	}
	return strings.EqualFold(c.Target, me.Username)
}

// mentionPattern builds a case-insensitive matcher for @handle not followed by
// a letter, digit or underscore in any script. It returns nil when handles is
// empty.
func mentionPattern(handles []string) *regexp.Regexp {
	quoted := make([]string, 0, len(handles))
	for _, h := range handles {
		h = strings.TrimPrefix(strings.TrimSpace(h), "@")
		if h != "" {
			quoted = append(quoted, regexp.QuoteMeta(h))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)@(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}_])`)
}
