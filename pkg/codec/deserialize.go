package codec

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Deserialize binds data onto inst. With validate set, the snapshot stored
// under data's form_key must exist and data may only carry fields that
// snapshot offered; the snapshot's action-only list then replaces the
// instance's own. Binding failures are returned as form.BindingErrors.
func (c *Codec) Deserialize(ctx context.Context, inst *form.Instance, data map[string]any, validate bool) (*form.Instance, error) {
	name := inst.Definition().Name()
	if !validate {
		if err := inst.Bind(data); err != nil {
			return inst, err
		}
		return inst, nil
	}

	key, _ := data[KeyFormKey].(string)
	if key == "" {
		c.observer.ObserveValidation(name, OutcomeNoKey)
		return inst, ErrFormKeyMissing
	}

	snap, err := c.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, formcache.ErrNotFound) {
			c.observer.ObserveValidation(name, OutcomeCacheMiss)
			c.logger.Debug("form snapshot missing",
				zap.String("form", name),
				zap.String("form_key", key),
			)
			return inst, fmt.Errorf("%w: %v", ErrCacheMiss, err)
		}
		c.observer.ObserveValidation(name, OutcomeCacheError)
		return inst, fmt.Errorf("codec: load snapshot: %w", err)
	}

	if mismatch := c.compare(inst, snap, data); mismatch != nil {
		c.observer.ObserveValidation(name, OutcomeMismatch)
		c.logger.Debug("form keys rejected",
			zap.String("form", name),
			zap.String("form_key", key),
			zap.Strings("extra", mismatch.Extra),
			zap.Strings("missing", mismatch.Missing),
		)
		return inst, mismatch
	}

	inst.SetNonDataFields(snap.NonDataFields)
	if err := inst.Bind(data); err != nil {
		c.observer.ObserveValidation(name, OutcomeBinding)
		return inst, err
	}

	c.observer.ObserveValidation(name, OutcomeAccepted)
	if c.consume {
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.Warn("form snapshot not consumed",
				zap.String("form", name),
				zap.String("form_key", key),
				zap.Error(err),
			)
		}
	}
	return inst, nil
}

// compare checks data against the snapshot. Extra keys always fail; missing
// data fields only fail in strict mode.
func (c *Codec) compare(inst *form.Instance, snap formcache.Snapshot, data map[string]any) *FieldMismatchError {
	var extra []string
	for key := range data {
		if key == KeyFormKey || snap.Allows(key) {
			continue
		}
		extra = append(extra, key)
	}

	var missing []string
	if c.strict {
		for _, name := range snap.DataFields {
			if _, ok := data[name]; ok || IsReservedKey(name) {
				continue
			}
			if f, ok := inst.Field(name); ok && (f.Hidden || f.IsAction()) {
				continue
			}
			if contains(snap.NonDataFields, name) {
				continue
			}
			missing = append(missing, name)
		}
	}

	if len(extra) == 0 && len(missing) == 0 {
		return nil
	}
	sort.Strings(extra)
	sort.Strings(missing)
	return &FieldMismatchError{Extra: extra, Missing: missing}
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
