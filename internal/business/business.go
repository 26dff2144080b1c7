// Package business wires the ceremony core to its collaborators: the
// credential broker, template storage, sign-in persistence and the
// public HTTP API.
package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pawskey/ceremony-manager/internal/broker"
	"github.com/pawskey/ceremony-manager/internal/broker/softauthn"
	"github.com/pawskey/ceremony-manager/internal/business/server"
	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/config"
	"github.com/pawskey/ceremony-manager/internal/session"
	sessionmock "github.com/pawskey/ceremony-manager/internal/session/mock"
	sessionvalkey "github.com/pawskey/ceremony-manager/internal/session/valkey"
	"github.com/pawskey/ceremony-manager/internal/template"
)

// Main starts the public HTTP API server.
func Main(ctx context.Context, cfg *config.Config) error {
	sess, closeFn, err := initSessionState(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising sign-in state: %w", err)
	}
	defer closeFn()

	csrfKey, err := loadCSRFKey(cfg)
	if err != nil {
		return err
	}

	manager, err := newCeremonyManager(cfg, sess, ceremony.WithObserver(server.NewCookieObserver(sess)))
	if err != nil {
		return err
	}

	return server.StartHTTPServer(ctx, cfg, manager, sess, csrfKey)
}

// SignUpMain runs a single registration ceremony and exits. It backs
// the signup CLI command.
func SignUpMain(ctx context.Context, cfg *config.Config, userName string) error {
	return runCeremony(ctx, cfg, func(ctx context.Context, manager *ceremony.Manager) (ceremony.Result, error) {
		return manager.SignUp(ctx, userName)
	})
}

// SignInMain runs a single assertion ceremony and exits.
func SignInMain(ctx context.Context, cfg *config.Config) error {
	return runCeremony(ctx, cfg, func(ctx context.Context, manager *ceremony.Manager) (ceremony.Result, error) {
		return manager.SignIn(ctx)
	})
}

func runCeremony(ctx context.Context, cfg *config.Config, run func(context.Context, *ceremony.Manager) (ceremony.Result, error)) error {
	sess, closeFn, err := initSessionState(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising sign-in state: %w", err)
	}
	defer closeFn()

	manager, err := newCeremonyManager(cfg, sess)
	if err != nil {
		return err
	}

	result, err := run(ctx, manager)
	if err != nil {
		return err
	}

	if !result.Succeeded() {
		failure := *result.Failure
		if !failure.Surfaced() {
			slogctx.Info(ctx, "Ceremony dismissed")
			return nil
		}

		return fmt.Errorf("ceremony failed (%s, retryable=%t): %s", failure.Kind, failure.Retryable, failure.Message)
	}

	slogctx.Info(ctx, "Ceremony succeeded",
		"signedIn", sess.IsSignedIn(),
		"method", string(sess.CurrentMethod()),
	)

	return nil
}

func newCeremonyManager(cfg *config.Config, sess *session.State, opts ...ceremony.ManagerOption) (*ceremony.Manager, error) {
	templates, err := template.NewProvider(cfg.Templates.Dir, cfg.Templates.TTL)
	if err != nil {
		return nil, fmt.Errorf("initialising template provider: %w", err)
	}

	b, err := newBroker(cfg)
	if err != nil {
		return nil, err
	}

	opts = append(opts, ceremony.WithRequireUserVerification(cfg.Ceremony.RequireUserVerification))

	return ceremony.NewManager(templates, b, sess, opts...), nil
}

func newBroker(cfg *config.Config) (broker.Broker, error) {
	switch cfg.Broker.Kind {
	case "softauthn", "":
		return softauthn.New(softauthn.Config{
			RPID:   cfg.Broker.RPID,
			RPName: cfg.Broker.RPName,
			Origin: cfg.Broker.Origin,
		}), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Broker.Kind)
	}
}

// initSessionState builds the sign-in repository and loads the
// persisted record. Without Valkey the record lives in process memory
// only.
func initSessionState(ctx context.Context, cfg *config.Config) (_ *session.State, closeFn func(), _ error) {
	var (
		repo    session.Repository
		cleanup = func() {}
	)

	if cfg.ValKey.Enabled {
		valkeyClient, err := newValkeyClient(cfg)
		if err != nil {
			return nil, nil, err
		}

		repo = sessionvalkey.NewRepository(valkeyClient, cfg.ValKey.Prefix)
		cleanup = valkeyClient.Close
	} else {
		slogctx.Info(ctx, "Valkey disabled, sign-in state is not durable")
		repo = sessionmock.NewInMemRepository()
	}

	sess := session.NewState(repo)
	if err := sess.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sess, cleanup, nil
}

func newValkeyClient(cfg *config.Config) (valkey.Client, error) {
	valkeyHost, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.Host)
	if err != nil {
		return nil, fmt.Errorf("loading valkey host: %w", err)
	}

	valkeyUsername, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.User)
	if err != nil {
		return nil, fmt.Errorf("loading valkey username: %w", err)
	}

	valkeyPassword, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.Password)
	if err != nil {
		return nil, fmt.Errorf("loading valkey password: %w", err)
	}

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{string(valkeyHost)},
		Username:    string(valkeyUsername),
		Password:    string(valkeyPassword),
	})
	if err != nil {
		return nil, fmt.Errorf("creating a new valkey client: %w", err)
	}

	return valkeyClient, nil
}

func loadCSRFKey(cfg *config.Config) ([]byte, error) {
	key, err := commoncfg.LoadValueFromSourceRef(cfg.Ceremony.CSRFSecret)
	if err != nil {
		return nil, fmt.Errorf("loading csrf secret: %w", err)
	}
	if len(key) < 32 {
		return nil, errors.New("CSRF secret must be at least 32 bytes")
	}

	return key, nil
}
