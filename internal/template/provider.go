// Package template loads the server-issued ceremony templates. A YAML
// manifest names the registration and authentication documents; the
// documents themselves stay opaque strings that only the request
// builder substitutes into.
package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
)

const (
	ManifestFileName = "templates.yaml"

	keyRegistration   = "registration"
	keyAuthentication = "authentication"
)

// Manifest names the template documents, relative to the template
// directory.
type Manifest struct {
	Registration   string `yaml:"registration"`
	Authentication string `yaml:"authentication"`
}

// Provider reads templates from disk and caches them for a configured
// TTL, so template edits roll out without a restart.
type Provider struct {
	dir      string
	manifest Manifest
	cache    *gocache.Cache
}

var _ = ceremony.TemplateProvider(&Provider{})

// NewProvider parses the manifest in dir and validates both documents
// once up front, so a broken template surfaces at startup rather than
// mid-ceremony.
func NewProvider(dir string, ttl time.Duration) (*Provider, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("reading template manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parsing template manifest: %w", err)
	}
	if manifest.Registration == "" || manifest.Authentication == "" {
		return nil, errors.New("template manifest must name registration and authentication documents")
	}

	p := &Provider{
		dir:      dir,
		manifest: manifest,
		cache:    gocache.New(ttl, 2*ttl),
	}

	if _, err := p.Registration(context.Background()); err != nil {
		return nil, err
	}
	if _, err := p.Authentication(context.Background()); err != nil {
		return nil, err
	}

	return p, nil
}

// Registration returns the registration template. It must carry every
// placeholder the builder substitutes.
func (p *Provider) Registration(_ context.Context) (string, error) {
	doc, err := p.load(keyRegistration, p.manifest.Registration)
	if err != nil {
		return "", err
	}

	for _, placeholder := range []string{
		ceremony.PlaceholderUserID,
		ceremony.PlaceholderUserName,
		ceremony.PlaceholderUserDisplayName,
		ceremony.PlaceholderChallenge,
	} {
		if !strings.Contains(doc, placeholder) {
			return "", fmt.Errorf("registration template lacks %s: %w", placeholder, serviceerr.ErrMalformedTemplate)
		}
	}

	return doc, nil
}

// Authentication returns the assertion template, which carries no
// per-call placeholders.
func (p *Provider) Authentication(_ context.Context) (string, error) {
	return p.load(keyAuthentication, p.manifest.Authentication)
}

func (p *Provider) load(key, fileName string) (string, error) {
	if cached, ok := p.cache.Get(key); ok {
		if doc, ok := cached.(string); ok {
			return doc, nil
		}
	}

	raw, err := os.ReadFile(filepath.Join(p.dir, fileName))
	if err != nil {
		return "", fmt.Errorf("reading %s template: %w", key, err)
	}

	doc := string(raw)
	p.cache.Set(key, doc, gocache.DefaultExpiration)

	return doc, nil
}
