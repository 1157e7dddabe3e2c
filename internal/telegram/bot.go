package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot bound to a single destination channel
func NewBot(c BotConfig) (*Bot, error) {
	channelID, err := strconv.ParseInt(c.ChannelID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid telegram channel id %q", c.ChannelID)
	}

	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(c.Token, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:       bot,
		Config:    c,
		channelID: channelID,
	}, nil
}

// Send delivers a plain-text message to the configured channel. It
// reports true only when the API accepted the message; every other
// status or transport failure is uniformly false, with no retry. A nil
// bot (failed startup construction) always reports false.
func (b *Bot) Send(text string) bool {
	if b == nil || b.Bot == nil {
		log.Error("telegram bot is not configured, dropping message")
		return false
	}

	// no parse mode: the formatted layout must arrive verbatim
	msg := tgbotapi.NewMessage(b.channelID, text)
	msg.DisableWebPagePreview = true

	if _, err := b.Bot.Send(msg); err != nil {
		log.Errorf("could not send message to channel %d: %v", b.channelID, err)
		return false
	}

	return true
}
