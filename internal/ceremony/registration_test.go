package ceremony_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawskey/ceremony-manager/internal/broker"
	brokermock "github.com/pawskey/ceremony-manager/internal/broker/mock"
	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/challenge"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
	sessionmock "github.com/pawskey/ceremony-manager/internal/session/mock"
)

type recordingObserver struct {
	succeeded []ceremony.Result
	failed    []ceremony.Failure
}

func (o *recordingObserver) OnSucceeded(_ context.Context, result ceremony.Result) {
	o.succeeded = append(o.succeeded, result)
}

func (o *recordingObserver) OnFailed(_ context.Context, failure ceremony.Failure) {
	o.failed = append(o.failed, failure)
}

func newSessionState(t *testing.T) *session.State {
	t.Helper()

	state := session.NewState(sessionmock.NewInMemRepository())
	require.NoError(t, state.Load(context.Background()))

	return state
}

func newRegistration(sess *session.State, b broker.Broker, observer ceremony.Observer) *ceremony.Registration {
	builder := ceremony.NewBuilder(challenge.Source{})

	return ceremony.NewRegistration(builder, ceremony.NewGateway(b), sess, observer, "")
}

func TestRegistration_Succeeds(t *testing.T) {
	sess := newSessionState(t)
	observer := &recordingObserver{}
	c := newRegistration(sess, brokermock.NewBroker(), observer)

	result, err := c.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, result.Credential)
	assert.Equal(t, ceremony.StateSucceeded, c.State())

	assert.True(t, sess.IsSignedIn())
	assert.Equal(t, session.MethodPasskey, sess.CurrentMethod())

	require.Len(t, observer.succeeded, 1)
	assert.Empty(t, observer.failed)
}

func TestRegistration_EmptyUserName(t *testing.T) {
	sess := newSessionState(t)
	brokerCalled := false
	b := brokermock.NewBroker(brokermock.WithCreateCredential(
		func(context.Context, broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
			brokerCalled = true
			return broker.CreateCredentialResponse{}, nil
		},
	))
	c := newRegistration(sess, b, nil)

	_, err := c.Start(context.Background(), registrationTemplate, "")
	require.ErrorIs(t, err, serviceerr.ErrEmptyUserName)

	assert.Equal(t, ceremony.StateFailed, c.State())
	assert.False(t, brokerCalled, "validation failures must not reach the broker")
	assert.False(t, sess.IsSignedIn())
}

func TestRegistration_StartTwice(t *testing.T) {
	sess := newSessionState(t)
	c := newRegistration(sess, brokermock.NewBroker(), nil)

	_, err := c.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	_, err = c.Start(context.Background(), registrationTemplate, "ada")
	assert.ErrorIs(t, err, serviceerr.ErrInvalidCeremonyState)
}

func TestRegistration_StartTwice_AfterFailure(t *testing.T) {
	sess := newSessionState(t)
	c := newRegistration(sess, brokermock.NewBroker(), nil)

	_, err := c.Start(context.Background(), registrationTemplate, "")
	require.Error(t, err)

	_, err = c.Start(context.Background(), registrationTemplate, "ada")
	assert.ErrorIs(t, err, serviceerr.ErrInvalidCeremonyState)
	assert.False(t, sess.IsSignedIn())
}

func TestRegistration_BrokerInterrupted(t *testing.T) {
	sess := newSessionState(t)
	observer := &recordingObserver{}
	interrupted := brokermock.NewBroker(brokermock.WithCreateError(
		broker.NewError(broker.CategoryInterrupted, "provider restarted"),
	))

	c := newRegistration(sess, interrupted, observer)
	result, err := c.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	require.False(t, result.Succeeded())
	assert.Equal(t, ceremony.KindProviderInterrupted, result.Failure.Kind)
	assert.True(t, result.Failure.Retryable)
	assert.Equal(t, ceremony.StateFailed, c.State())
	assert.False(t, sess.IsSignedIn())
	require.Len(t, observer.failed, 1)

	// A retry is a fresh instance against the same session state.
	retry := newRegistration(sess, brokermock.NewBroker(), observer)
	result, err = retry.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.True(t, sess.IsSignedIn())
}

func TestRegistration_UserCancelled(t *testing.T) {
	sess := newSessionState(t)
	declined := brokermock.NewBroker(brokermock.WithCreateError(
		broker.NewError(broker.CategoryCancelled, "user backed out"),
	))

	c := newRegistration(sess, declined, nil)
	result, err := c.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	require.False(t, result.Succeeded())
	assert.Equal(t, ceremony.KindUserCancelled, result.Failure.Kind)
	assert.False(t, result.Failure.Retryable)
	assert.False(t, result.Failure.Surfaced())
	assert.False(t, sess.IsSignedIn())
}

func TestRegistration_UnexpectedCredentialShape(t *testing.T) {
	sess := newSessionState(t)
	passwordBroker := brokermock.NewBroker(brokermock.WithCreateCredential(
		func(context.Context, broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
			return broker.CreateCredentialResponse{
				Type:             broker.CredentialTypePassword,
				RegistrationJSON: `{"password":"hunter2"}`,
			}, nil
		},
	))

	c := newRegistration(sess, passwordBroker, nil)
	result, err := c.Start(context.Background(), registrationTemplate, "ada")
	require.NoError(t, err)

	require.False(t, result.Succeeded())
	assert.Equal(t, ceremony.KindUnknownBroker, result.Failure.Kind)
	assert.False(t, sess.IsSignedIn())
}

func TestRegistration_CancelledAwait(t *testing.T) {
	sess := newSessionState(t)
	blocked := brokermock.NewBroker(brokermock.WithCreateCredential(
		func(ctx context.Context, _ broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
			<-ctx.Done()
			return broker.CreateCredentialResponse{}, ctx.Err()
		},
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newRegistration(sess, blocked, nil)
	result, err := c.Start(ctx, registrationTemplate, "ada")
	require.NoError(t, err)

	require.False(t, result.Succeeded())
	assert.Equal(t, ceremony.KindProviderInterrupted, result.Failure.Kind)
	assert.True(t, result.Failure.Retryable)
}
