// ABOUTME: Webhook registrations: create, list, update and delete outbound delivery targets.
// ABOUTME: URLs must be absolute http(s); subscriptions must name known events or the wildcard.
package registry

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/2389-research/kanbanfs/board/core"
)

// WebhookUpdate lists the webhook fields to change.
type WebhookUpdate struct {
	URL    *string   `json:"url,omitempty"`
	Events *[]string `json:"events,omitempty"`
	Secret *string   `json:"secret,omitempty"`
	Active *bool     `json:"active,omitempty"`
}

// Webhooks returns every registration, active or not.
func (r *Registry) Webhooks() ([]core.Webhook, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	return cfg.Webhooks, nil
}

// Webhook returns one registration.
func (r *Registry) Webhook(id string) (core.Webhook, error) {
	hooks, err := r.Webhooks()
	if err != nil {
		return core.Webhook{}, err
	}
	for _, h := range hooks {
		if h.ID == id {
			return h, nil
		}
	}
	return core.Webhook{}, core.NotFound(core.KindWebhook, id)
}

// CreateWebhook registers a new active webhook. No events means all events.
func (r *Registry) CreateWebhook(rawURL string, events []string, secret string) (core.Webhook, error) {
	if err := validateWebhookURL(rawURL); err != nil {
		return core.Webhook{}, err
	}
	if len(events) == 0 {
		events = []string{core.WildcardEvent}
	}
	if err := validateEvents(events); err != nil {
		return core.Webhook{}, err
	}
	h := core.Webhook{
		ID:     uuid.NewString(),
		URL:    rawURL,
		Events: append([]string{}, events...),
		Secret: secret,
		Active: true,
	}
	err := r.update(func(cfg *core.Config) error {
		cfg.Webhooks = append(cfg.Webhooks, h)
		return nil
	})
	if err != nil {
		return core.Webhook{}, err
	}
	return h, nil
}

// UpdateWebhook changes a registration in place.
func (r *Registry) UpdateWebhook(id string, u WebhookUpdate) (core.Webhook, error) {
	if u.URL != nil {
		if err := validateWebhookURL(*u.URL); err != nil {
			return core.Webhook{}, err
		}
	}
	if u.Events != nil {
		if len(*u.Events) == 0 {
			*u.Events = []string{core.WildcardEvent}
		}
		if err := validateEvents(*u.Events); err != nil {
			return core.Webhook{}, err
		}
	}
	var out core.Webhook
	err := r.update(func(cfg *core.Config) error {
		for i := range cfg.Webhooks {
			h := &cfg.Webhooks[i]
			if h.ID != id {
				continue
			}
			if u.URL != nil {
				h.URL = *u.URL
			}
			if u.Events != nil {
				h.Events = append([]string{}, (*u.Events)...)
			}
			if u.Secret != nil {
				h.Secret = *u.Secret
			}
			if u.Active != nil {
				h.Active = *u.Active
			}
			out = *h
			return nil
		}
		return core.NotFound(core.KindWebhook, id)
	})
	return out, err
}

// DeleteWebhook removes a registration.
func (r *Registry) DeleteWebhook(id string) error {
	return r.update(func(cfg *core.Config) error {
		for i, h := range cfg.Webhooks {
			if h.ID == id {
				cfg.Webhooks = append(cfg.Webhooks[:i], cfg.Webhooks[i+1:]...)
				return nil
			}
		}
		return core.NotFound(core.KindWebhook, id)
	})
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.Invalid(core.ErrInvalidWebhook, "url %q must be absolute http or https", raw)
	}
	return nil
}

func validateEvents(events []string) error {
	for _, e := range events {
		if !core.KnownEvent(e) {
			return core.Invalid(core.ErrInvalidWebhook, "unknown event %q", e)
		}
	}
	return nil
}
