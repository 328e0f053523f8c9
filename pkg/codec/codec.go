package codec

import (
	"errors"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Keys injected into the model. The identity keys are accepted back only
// when the render injected them.
const (
	KeyFormKey   = "form_key"
	KeyObjectKey = "object_key"
	KeyModelType = "model_type"
	KeyUnicode   = "unicode"
)

// Composite directive values.
const (
	DirectiveAddCmd   = "add_edit_form"
	DirectiveListCmd  = "select_list"
	DirectiveWorkflow = "crud"
)

var (
	// RootOptions are definition meta keys copied to the document root.
	RootOptions = []string{"inline_edit"}
	// MetaOptions are definition meta keys copied to schema.meta.
	MetaOptions = []string{"translate_widget", "allow_selection", "allow_add_listnode", "allow_actions"}

	reservedHints = map[string]struct{}{
		"type": {}, "title": {}, "required": {}, "default": {},
		"value": {}, "hidden": {}, "choices": {},
	}
	reservedKeys = map[string]struct{}{
		KeyFormKey: {}, KeyObjectKey: {}, KeyModelType: {}, KeyUnicode: {},
	}
)

// IsReservedKey reports whether key is injected by Serialize rather than
// backed by a field.
func IsReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

// Validation outcomes reported to an Observer.
const (
	OutcomeAccepted   = "accepted"
	OutcomeNoKey      = "no_key"
	OutcomeCacheMiss  = "cache_miss"
	OutcomeMismatch   = "mismatch"
	OutcomeBinding    = "binding"
	OutcomeCacheError = "cache_error"
)

// Observer receives render and validation outcomes.
type Observer interface {
	ObserveRender(form string, err error)
	ObserveValidation(form, outcome string)
}

// Option customises a Codec.
type Option func(*Codec)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSanitizer cleans titles, help text and choice labels with policy
// before they are emitted.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(c *Codec) { c.sanitizer = policy }
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(c *Codec) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithStrictKeys makes submissions that omit offered data fields fail with a
// FieldMismatchError before binding. Hidden and action-only fields may still
// be omitted.
func WithStrictKeys(strict bool) Option {
	return func(c *Codec) { c.strict = strict }
}

// WithConsumeOnSuccess deletes the snapshot once a submission binds cleanly,
// so a form_key can be accepted only once.
func WithConsumeOnSuccess(consume bool) Option {
	return func(c *Codec) { c.consume = consume }
}

// Codec serializes instances and validates submissions through a shared
// snapshot cache. It is safe for concurrent use; instances are not.
type Codec struct {
	cache     *formcache.Cache
	logger    *zap.Logger
	sanitizer *bluemonday.Policy
	observer  Observer
	strict    bool
	consume   bool
}

var errCacheMissing = errors.New("codec: cache is required")

// New constructs a Codec writing snapshots to cache.
func New(cache *formcache.Cache, options ...Option) (*Codec, error) {
	if cache == nil {
		return nil, errCacheMissing
	}
	c := &Codec{
		cache:    cache,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Codec) clean(s string) string {
	if c.sanitizer == nil || s == "" {
		return s
	}
	return strings.TrimSpace(c.sanitizer.Sanitize(s))
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// TextPolicy returns a shared policy that keeps basic inline formatting and
// links and strips everything else.
func TextPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "br", "code")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		textPolicy = policy
	})
	return textPolicy
}

type nopObserver struct{}

func (nopObserver) ObserveRender(string, error)       {}
func (nopObserver) ObserveValidation(string, string) {}
