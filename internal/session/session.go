// Package session implements the per-user conversation flow of the weather
// bot: a subscriber starts a conversation, asks for cities and ends it, and
// a conversation left alone for too long is dropped on the next message.
//
// Entry points never send anything. They return a Result that the transport
// layer renders, including an optional reply to deliver after a delay.
package session

import (
	"time"

	"github.com/m3rciful/weatherbot/core/telegram/state"
)

// Conversation modes. Idle is represented by the absence of a session.
const (
	ModeAwaitingCity     state.State = "awaiting_city"
	ModeAwaitingContinue state.State = "awaiting_continue"
)

// DefaultInactivityTimeout is how long a session survives without messages.
const DefaultInactivityTimeout = 5 * time.Minute

// Reply texts.
const (
	TextWelcome          = "Welcome! I am your weather bot. You can now start using me!"
	TextEnterCity        = "Please enter a city name:"
	TextSubscribeFirst   = "Hello! Before using the bot, you need to subscribe. Type /subscribe to subscribe."
	TextAlreadySubscribe = "You are already subscribed to the bot!"
	TextSubscribed       = "Thank you for subscribing! You can now use the bot. Type /start to begin."
	TextPleaseStart      = "Please /start me to begin."
	TextNotSubscribed    = "Please subscribe first by typing /subscribe."
	TextInactive         = "You were inactive for too long. Please /start again."
	TextCityNotFound     = "Sorry, I couldn't find that city. Please enter a valid city name."
	TextContinue         = "Do you want to check the weather for another city? Type \"yes\" to continue or \"no\" to stop."
	TextGoodbye          = "Thank you for using the weather bot. Have a nice day!"
	TextStoreFailure     = "Something went wrong on our side. Please try again later."
	TextNotAllowed       = "Sorry, this command is only available to administrators."
)

// Answers accepted while awaiting a continue decision, compared case-insensitively.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Markdown bool
	// Choices are offered as a one-time keyboard.
	Choices []string
	// ClearChoices removes a previously shown keyboard.
	ClearChoices bool
}

// Deferred is a reply to deliver after Delay without blocking the caller.
type Deferred struct {
	Delay time.Duration
	Reply Reply
}

// Result is what an entry point produced: replies in send order and an
// optional deferred reply.
type Result struct {
	Replies  []Reply
	Deferred *Deferred
}

func text(s string) Reply { return Reply{Text: s} }

func replies(rs ...Reply) Result { return Result{Replies: rs} }

// Expired reports whether a session last touched at last is stale at now.
// The boundary itself is not expired.
func Expired(now, last time.Time, threshold time.Duration) bool {
	return now.Sub(last) > threshold
}
