package slackbot

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/arnoldlabs/arnold/internal/store"
)

// SelectPropertyActionID identifies the property menu selection in
// interactive-action callbacks.
const SelectPropertyActionID = "select_property"

// ConnectPromptBlocks builds the ephemeral connect prompt: intro, a primary
// button linking to the authorization URL, and a reassurance context line.
// The URL is rendered as an actionable button, never a redirect, because the
// slash command response must render in-platform.
func ConnectPromptBlocks(authURL string) []slack.Block {
	intro := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType,
			"👋 *Connect your Google Analytics account to get started with Arnold!*\n\n"+
				"Arnold will be able to:\n"+
				"• Read your Google Analytics data\n"+
				"• Show you insights and reports\n"+
				"• Answer questions about your website traffic",
			false, false),
		nil, nil,
	)

	button := slack.NewButtonBlockElement("google_connect", "connect",
		slack.NewTextBlockObject(slack.PlainTextType, "🔗 Connect Google Analytics", true, false))
	button.URL = authURL
	button.Style = slack.StylePrimary

	note := slack.NewContextBlock("connect_note",
		slack.NewTextBlockObject(slack.MarkdownType, "🔒 Your credentials are encrypted and secure", false, false))

	return []slack.Block{
		intro,
		slack.NewActionBlock("connect_actions", button),
		note,
	}
}

// PropertyMenuBlocks builds the static-select menu offering the discovered
// properties. Option values carry the property id; labels show the display
// name with the account as description.
func PropertyMenuBlocks(properties []store.Property) []slack.Block {
	options := make([]*slack.OptionBlockObject, 0, len(properties))
	for _, p := range properties {
		var description *slack.TextBlockObject
		if p.AccountName != "" {
			description = slack.NewTextBlockObject(slack.PlainTextType, p.AccountName, false, false)
		}
		label := p.DisplayName
		if label == "" {
			label = p.ID
		}
		options = append(options, slack.NewOptionBlockObject(p.ID,
			slack.NewTextBlockObject(slack.PlainTextType, label, false, false),
			description))
	}

	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Select a property", false, false),
		SelectPropertyActionID,
		options...)

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"✅ *Google Analytics connected!*\n\nWhich property should Arnold use?",
				false, false),
			nil, nil),
		slack.NewActionBlock("property_select", menu),
	}
}

// StatusBlocks builds the connected-status report. Expired tokens and a
// missing property selection each get their own warning marker.
func StatusBlocks(expired bool, propertyID string) []slack.Block {
	state := "✅ Active"
	if expired {
		state = "⚠️ Token expired - please reconnect"
	}
	property := propertyID
	if property == "" {
		property = "⚠️ Not set - use /arnold-property"
	}
	text := fmt.Sprintf("✅ *Google Analytics Connected*\n\n• Status: %s\n• Property: %s", state, property)
	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
}
