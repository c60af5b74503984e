package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlens/brokerportal/internal/domain/entity"
)

type fakeEmail struct {
	err     error
	to      string
	subject string
	text    string
	calls   int
}

func (f *fakeEmail) Send(_ context.Context, to, subject, text string) error {
	f.calls++
	f.to, f.subject, f.text = to, subject, text
	return f.err
}

type fakeSMS struct {
	err   error
	to    string
	text  string
	calls int
}

func (f *fakeSMS) Send(_ context.Context, to, text string) error {
	f.calls++
	f.to, f.text = to, text
	return f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func codeVars() map[string]string {
	return map[string]string{
		"first_name": "Jane",
		"company":    "BrightLens Photography",
		"code":       "042137",
		"minutes":    "10",
	}
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	subject, body, err := Render(TemplateOTPVerification, codeVars())
	require.NoError(t, err)
	assert.Equal(t, "Your BrightLens Photography verification code", subject)
	assert.Contains(t, body, "Hi Jane")
	assert.Contains(t, body, "042137")
	assert.Contains(t, body, "10 minutes")
	assert.NotContains(t, body, "{{")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("password_reset", nil)
	assert.Error(t, err)
}

func TestDispatchEmailSuccess(t *testing.T) {
	email := &fakeEmail{}
	d := NewDispatcher(email, nil, nil, quietLogger())

	ok := d.Send(context.Background(), entity.ChannelEmail, "jane@example.com", TemplateWelcome, codeVars())
	assert.True(t, ok)
	require.Equal(t, 1, email.calls)
	assert.Equal(t, "jane@example.com", email.to)
	assert.Equal(t, "Welcome to BrightLens Photography", email.subject)
	assert.Contains(t, email.text, "042137")
}

func TestDispatchEmailTransportFailure(t *testing.T) {
	email := &fakeEmail{err: errors.New("mailgun 500")}
	d := NewDispatcher(email, nil, nil, quietLogger())

	ok := d.Send(context.Background(), entity.ChannelEmail, "jane@example.com", TemplateWelcome, codeVars())
	assert.False(t, ok)
}

func TestDispatchSMSSuccess(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(nil, sms, nil, quietLogger())

	ok := d.Send(context.Background(), entity.ChannelSMS, "+15550001111", TemplateOTPVerification, codeVars())
	assert.True(t, ok)
	require.Equal(t, 1, sms.calls)
	assert.Equal(t, "+15550001111", sms.to)
	assert.Contains(t, sms.text, "042137")
}

func TestDispatchSMSTransportFailure(t *testing.T) {
	sms := &fakeSMS{err: errors.New("gateway timeout")}
	d := NewDispatcher(nil, sms, nil, quietLogger())

	ok := d.Send(context.Background(), entity.ChannelSMS, "+15550001111", TemplateOTPVerification, codeVars())
	assert.False(t, ok)
}

func TestDispatchUnconfiguredTransportLogsAndSucceeds(t *testing.T) {
	// no transports wired at all: development mode
	d := NewDispatcher(nil, nil, nil, quietLogger())

	assert.True(t, d.Send(context.Background(), entity.ChannelEmail, "jane@example.com", TemplateWelcome, codeVars()))
	assert.True(t, d.Send(context.Background(), entity.ChannelSMS, "+15550001111", TemplateOTPVerification, codeVars()))
}

func TestDispatchUnknownChannel(t *testing.T) {
	d := NewDispatcher(&fakeEmail{}, &fakeSMS{}, nil, quietLogger())
	assert.False(t, d.Send(context.Background(), entity.Channel("pigeon"), "x", TemplateWelcome, codeVars()))
}

func TestDispatchUnknownTemplateFails(t *testing.T) {
	email := &fakeEmail{}
	d := NewDispatcher(email, nil, nil, quietLogger())
	assert.False(t, d.Send(context.Background(), entity.ChannelEmail, "jane@example.com", "nope", codeVars()))
	assert.Equal(t, 0, email.calls)
}
