package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	messages []*gomail.Message
	err      error
}

func (s *recordingSender) DialAndSend(m ...*gomail.Message) error {
	s.messages = append(s.messages, m...)
	return s.err
}

func TestSMTPMailer_SendEmail(t *testing.T) {
	sender := &recordingSender{}
	m := newSMTPMailer("noreply@market.test", sender, logger.NewNop())

	require.NoError(t, m.SendEmail("owner@example.com", "New Listing Created", "Your listing 'Lamp' has been created successfully."))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, []string{"noreply@market.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"owner@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"New Listing Created"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Your listing 'Lamp' has been created successfully.")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("535 authentication failed")}
	m := newSMTPMailer("noreply@market.test", sender, logger.NewNop())
	assert.EqualError(t, m.SendEmail("owner@example.com", "s", "b"), "535 authentication failed")
}

func TestSMTPMailer_NotConfigured(t *testing.T) {
	m := NewSMTPMailer("smtp.gmail.com", 587, "", "", logger.NewNop())
	assert.ErrorIs(t, m.SendEmail("owner@example.com", "s", "b"), ErrNotConfigured)
}
