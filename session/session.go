// Package session ties the redirect parser, the credential store and the
// gallery client together and publishes the authenticated state.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/Brawl345/epicture/gallery"
	"github.com/Brawl345/epicture/logger"
	"github.com/Brawl345/epicture/model"
	"github.com/Brawl345/epicture/oauth"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

var ErrStateMismatch = errors.New("redirect state does not match the sign-in request")

type (
	// SignOutHook clears state owned by other collaborators, e.g. browser cookies.
	SignOutHook func(ctx context.Context) error

	Session struct {
		store  model.CredentialStore
		client *gallery.Client
		hooks  []SignOutHook
		log    zerolog.Logger

		mu          sync.Mutex
		state       string
		subscribers []*subscriber
	}

	subscriber struct {
		ch chan bool
	}
)

func New(store model.CredentialStore, client *gallery.Client, hooks ...SignOutHook) *Session {
	return &Session{
		store:  store,
		client: client,
		hooks:  hooks,
		log:    logger.New("session"),
	}
}

// Authenticated reports whether a credential is stored.
// Storage failures count as unauthenticated.
func (s *Session) Authenticated(ctx context.Context) bool {
	cred, err := s.store.Load(ctx)
	if err != nil {
		s.log.Err(err).Msg("Failed to load credential")
		return false
	}
	return cred != nil
}

// BeginSignIn returns the authorization URL the user has to open. Redirects
// carrying a different state are rejected afterwards.
func (s *Session) BeginSignIn(authorizeURL, clientID string) (string, error) {
	state := xid.New().String()
	signInURL, err := oauth.AuthorizeURL(authorizeURL, clientID, state)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return signInURL, nil
}

// HandleRedirect inspects a URL observed during sign-in. It returns the grant
// and true once a token was found and stored; URLs without a token are ignored.
func (s *Session) HandleRedirect(ctx context.Context, rawURL string) (oauth.Grant, bool, error) {
	grant, err := oauth.ParseGrant(rawURL)
	if errors.Is(err, oauth.ErrNoToken) {
		return oauth.Grant{}, false, nil
	}
	if err != nil {
		return oauth.Grant{}, false, err
	}

	s.mu.Lock()
	expected := s.state
	s.mu.Unlock()
	if expected != "" && grant.State != "" && grant.State != expected {
		return oauth.Grant{}, false, ErrStateMismatch
	}

	if err := s.store.Save(ctx, grant.AccessToken); err != nil {
		return oauth.Grant{}, false, err
	}

	s.log.Info().
		Str("account", grant.AccountUsername).
		Dur("expires_in", grant.ExpiresIn).
		Msg("Signed in")

	s.mu.Lock()
	s.state = ""
	s.mu.Unlock()

	s.publish(true)
	return grant, true, nil
}

// SignOut clears the credential, then runs the sign-out hooks.
// Hook failures are logged and do not keep the user signed in.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}

	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			s.log.Err(err).Msg("Sign-out hook failed")
		}
	}

	s.log.Info().Msg("Signed out")
	s.publish(false)
	return nil
}

// Subscribe returns a channel receiving the authenticated state after every
// change. Slow receivers only miss intermediate states, never the latest one.
func (s *Session) Subscribe() (<-chan bool, func()) {
	sub := &subscriber{ch: make(chan bool, 1)}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subscribers = slices.DeleteFunc(s.subscribers, func(other *subscriber) bool {
				return other == sub
			})
			close(sub.ch)
		})
	}
	return sub.ch, unsubscribe
}

func (s *Session) publish(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- authenticated
	}
}

func (s *Session) AccountImages(ctx context.Context) ([]model.ImageItem, error) {
	return s.fetch(ctx, model.AccountQuery())
}

func (s *Session) Search(ctx context.Context, text string) ([]model.ImageItem, error) {
	return s.fetch(ctx, model.SearchQuery(text))
}

func (s *Session) fetch(ctx context.Context, query model.GalleryQuery) ([]model.ImageItem, error) {
	cred, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	images, err := s.client.Fetch(ctx, cred, query)
	if model.IsReauth(err) && cred != nil && !s.Authenticated(ctx) {
		s.publish(false)
	}
	return images, err
}
