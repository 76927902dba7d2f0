package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &sendgridResponse{StatusCode: f.status, Body: "{}"}, nil
}

func testSender(client sendgridClient) *SendGridSender {
	return &SendGridSender{
		client:    client,
		fromEmail: "reports@example.com",
		fromName:  "Event Broadcasts",
		logger:    logging.NewWithWriter(io.Discard, "error"),
	}
}

func TestNewSendGridSender(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "a@example.com"}, nil))

	sender := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "a@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Event Broadcasts", sender.fromName)

	sender = NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "a@example.com", FromName: "Ops"}, nil)
	assert.Equal(t, "Ops", sender.fromName)
}

func TestSendGridSenderSend(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := testSender(fake)

	err := sender.Send(context.Background(), EmailMessage{
		To:      []string{"ops@example.com", "lead@example.com"},
		Subject: "Summary",
		Body:    "All done",
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	m := fake.sent[0]
	assert.Equal(t, "reports@example.com", m.From.Address)
	assert.Equal(t, "Summary", m.Subject)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 2)
	assert.Equal(t, "lead@example.com", m.Personalizations[0].To[1].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "All done", m.Content[0].Value)
}

func TestSendGridSenderErrors(t *testing.T) {
	msg := EmailMessage{To: []string{"ops@example.com"}, Subject: "s", Body: "b"}

	err := testSender(&fakeSendGrid{status: 401}).Send(context.Background(), msg)
	assert.EqualError(t, err, "notify: sendgrid returned status 401")

	err = testSender(&fakeSendGrid{err: errors.New("dial tcp: timeout")}).Send(context.Background(), msg)
	assert.ErrorContains(t, err, "dial tcp: timeout")

	err = testSender(&fakeSendGrid{status: 202}).Send(context.Background(), EmailMessage{Subject: "s"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = (&SendGridSender{}).Send(context.Background(), msg)
	assert.Error(t, err)
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(logging.NewWithWriter(io.Discard, "info"))
	assert.NoError(t, sender.Send(context.Background(), EmailMessage{To: []string{"ops@example.com"}}))
}
