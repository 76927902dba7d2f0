package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func TestDialpadSenderSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/sms", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]string{"to": "+15551234567", "from": "+15550001111", "text": "hello"}, payload)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"sms_1","message_status":"pending"}`))
	}))
	defer server.Close()

	sender := NewDialpadSender("key-123", quietLogger()).WithBaseURL(server.URL + "/v2/")
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Equal(t, "sms_1", resp.Body["id"])
}

func TestDialpadSenderRecordsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid number"}}`))
	}))
	defer server.Close()

	sender := NewDialpadSender("key", quietLogger()).WithBaseURL(server.URL)
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hello")
	require.NoError(t, err, "provider rejections are not transport errors")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.NotNil(t, resp.Body["error"])
}

func TestDialpadSenderDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewDialpadSender("key", quietLogger()).WithBaseURL(server.URL)
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Nil(t, resp.Body)
	assert.Equal(t, 1, calls)
}

func TestDialpadSenderTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	sender := NewDialpadSender("key", quietLogger()).WithBaseURL(server.URL).WithTimeout(20 * time.Millisecond)
	_, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messaging: request failed")
}

func TestSendersValidate(t *testing.T) {
	ctx := context.Background()
	senders := map[string]Sender{
		"dialpad": NewDialpadSender("key", quietLogger()),
		"telnyx":  NewTelnyxSender("key", "", quietLogger()),
		"twilio":  NewTwilioSender("AC1", "tok", quietLogger()),
		"dry-run": NewLoggingSender(quietLogger()),
	}
	for name, sender := range senders {
		_, err := sender.Send(ctx, "", "+15551234567", "hi")
		assert.Error(t, err, name)
		_, err = sender.Send(ctx, "+15550001111", " ", "hi")
		assert.Error(t, err, name)
		_, err = sender.Send(ctx, "+15550001111", "+15551234567", "  ")
		assert.Error(t, err, name)
	}

	_, err := NewDialpadSender("", quietLogger()).Send(ctx, "a", "b", "c")
	assert.EqualError(t, err, "messaging: dialpad api key missing")
	_, err = NewTelnyxSender("", "", quietLogger()).Send(ctx, "a", "b", "c")
	assert.EqualError(t, err, "messaging: telnyx api key missing")
	_, err = NewTwilioSender("", "", quietLogger()).Send(ctx, "a", "b", "c")
	assert.EqualError(t, err, "messaging: twilio credentials missing")
}

func TestTelnyxSenderSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer tx-key", r.Header.Get("Authorization"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "profile-1", payload["messaging_profile_id"])
		assert.Equal(t, "hi there", payload["text"])
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data":{"id":"msg_1","status":"queued"}}`))
	}))
	defer server.Close()

	sender := NewTelnyxSender("tx-key", "profile-1", quietLogger()).WithBaseURL(server.URL)
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hi there")
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	data, ok := resp.Body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "msg_1", data["id"])
}

func TestTwilioSenderSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "+15551234567", form.Get("To"))
		assert.Equal(t, "+15550001111", form.Get("From"))
		assert.Equal(t, "hey", form.Get("Body"))
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	}))
	defer server.Close()

	sender := NewTwilioSender("AC123", "secret", quietLogger()).WithBaseURL(server.URL)
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hey")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "status 400 code 21211: Invalid 'To' Phone Number", formatTwilioError(resp))
	assert.Equal(t, "status 500", formatTwilioError(Response{StatusCode: 500}))
}

func TestLoggingSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLoggingSender(logging.NewWithWriter(&buf, "info"))
	resp, err := sender.Send(context.Background(), "+15550001111", "+15551234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.StatusCode)
	assert.Equal(t, true, resp.Body["dry_run"])
	assert.Contains(t, buf.String(), "dry run: would send sms")
}

func TestDecodeBody(t *testing.T) {
	assert.Nil(t, decodeBody(nil))
	assert.Nil(t, decodeBody([]byte("  \n")))
	assert.Equal(t, map[string]any{"ok": true}, decodeBody([]byte(`{"ok":true}`)))
	assert.Equal(t, map[string]any{"data": []any{1.0, 2.0}}, decodeBody([]byte(`[1,2]`)))
	assert.Equal(t, map[string]any{"raw": "Bad Gateway"}, decodeBody([]byte("Bad Gateway\n")))
}
