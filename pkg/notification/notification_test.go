package notification

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/raykavin/pricewatch/pkg/command"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger/zerolog"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

type noFeed struct{}

func (noFeed) LastQuote(context.Context) (core.Quote, error) {
	return core.Quote{}, core.ErrFeedUnavailable
}

type noWatch struct{}

func (noWatch) Start(int64) bool        { return false }
func (noWatch) Stop() bool              { return false }
func (noWatch) Interval() time.Duration { return time.Hour }

func TestAuthorize(t *testing.T) {
	update := func(id int64) *tb.Update {
		return &tb.Update{Message: &tb.Message{Sender: &tb.User{ID: id}}}
	}

	open := authorize(nil, zerolog.Nop())
	assert.True(t, open(update(1)))
	assert.False(t, open(&tb.Update{}))

	restricted := authorize([]int64{10, 20}, zerolog.Nop())
	assert.True(t, restricted(update(20)))
	assert.False(t, restricted(update(30)))
}

func TestEndpointsAndMenu(t *testing.T) {
	d := command.NewDispatcher(noFeed{}, storage.FromMemory(), noWatch{}, zerolog.Nop())

	routes := endpoints(d.Commands())
	assert.Contains(t, routes, "/start")
	assert.Contains(t, routes, "/bought")
	assert.Contains(t, routes, "/p")
	assert.Contains(t, routes, "/stopwatch")
	// keyword spellings go through OnText
	assert.NotContains(t, routes, "/Start")

	menu := menuCommands(d.Commands())
	require.Len(t, menu, 8)
	assert.Equal(t, "start", menu[0].Text)
	for _, c := range menu {
		assert.Regexp(t, menuCommand, c.Text)
		assert.NotEmpty(t, c.Description)
	}
}

func TestChatRecipient(t *testing.T) {
	assert.Equal(t, "-100123", chatRecipient(-100123).Recipient())
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, int64, string) error {
	f.calls++
	return errors.New("offline")
}

type countingNotifier struct{ texts []string }

func (c *countingNotifier) Notify(_ context.Context, _ int64, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func TestFanout(t *testing.T) {
	failing, counting := &failingNotifier{}, &countingNotifier{}
	f := NewFanout(zerolog.Nop(), failing)
	f.Add(counting)

	err := f.Notify(context.Background(), 1, "alert")
	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, []string{"alert"}, counting.texts)

	require.NoError(t, NewFanout(zerolog.Nop(), counting).Notify(context.Background(), 1, "again"))
}

func TestMail_Notify(t *testing.T) {
	m := NewMail(MailParams{
		SMTPServerAddress: "smtp.example.com",
		SMTPServerPort:    587,
		From:              "bot@example.com",
		To:                "me@example.com",
	})

	var gotAddr string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		assert.Equal(t, "bot@example.com", from)
		assert.Equal(t, []string{"me@example.com"}, to)
		return nil
	}

	require.NoError(t, m.Notify(context.Background(), 0, "[GAINING] Current BTC price gained 5.00%"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Contains(t, string(gotMsg), "Subject: Price alert\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n[GAINING] Current BTC price gained 5.00%")

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	require.Error(t, m.Notify(context.Background(), 0, "x"))
}
