// Package config provides configuration loading and parsing for wordstress.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// settings is one configuration layer (a config file, the environment, or a
// nested section of either) with keys folded by settingKey.
type settings map[string]interface{}

// settingKey folds case and separators so "burst_clients", "burst-clients"
// and "burstClients" all name the same setting.
func settingKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("_", "", "-", "").Replace(key)
}

func newSettings(raw interface{}) (settings, error) {
	if raw == nil {
		return settings{}, nil
	}
	m, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, fmt.Errorf("expected a map, got %T", raw)
	}
	out := make(settings, len(m))
	for key, val := range m {
		out[settingKey(key)] = val
	}
	return out, nil
}

func (s settings) value(key string) (interface{}, bool) {
	v, ok := s[settingKey(key)]
	return v, ok
}

// binder copies settings onto Config fields. Conversion problems are
// collected so a bad file reports every broken key at once.
type binder struct {
	s    settings
	errs []error
}

func (b *binder) fail(key string, err error) {
	b.errs = append(b.errs, fmt.Errorf("%s: %w", key, err))
}

func (b *binder) err() error {
	return errors.Join(b.errs...)
}

// text sets target to the trimmed value when it is non-empty.
func (b *binder) text(key string, target *string) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	val, err := cast.ToStringE(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	if val = strings.TrimSpace(val); val != "" {
		*target = val
	}
}

// verbatim sets target to the value as given, empty included.
func (b *binder) verbatim(key string, target *string) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	val, err := cast.ToStringE(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = val
}

func (b *binder) toggle(key string, target *bool) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	val, err := parseToggle(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = val
}

func (b *binder) count(key string, target *int) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	if str, isStr := raw.(string); isStr {
		if str = strings.TrimSpace(str); str == "" {
			return
		}
		raw = str
	}
	val, err := cast.ToIntE(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = val
}

func (b *binder) ratio(key string, target *float64) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	val, err := cast.ToFloat64E(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = val
}

func (b *binder) duration(key string, unit time.Duration, target *time.Duration) {
	raw, ok := b.s.value(key)
	if !ok {
		return
	}
	val, err := parseDuration(raw, unit)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = val
}

// headers merges a map of header values into target under canonical names.
func (b *binder) headers(key string, target map[string]string) {
	raw, ok := b.s.value(key)
	if !ok || raw == nil {
		return
	}
	hdrs, err := cast.ToStringMapStringE(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	for name, val := range hdrs {
		if strings.TrimSpace(name) == "" {
			b.fail(key, errors.New("header name cannot be empty"))
			continue
		}
		target[http.CanonicalHeaderKey(strings.TrimSpace(name))] = val
	}
}

// list accepts a sequence, or a single string taken as one entry.
func (b *binder) list(key string, target *[]string) {
	raw, ok := b.s.value(key)
	if !ok || raw == nil {
		return
	}
	if str, isStr := raw.(string); isStr {
		*target = []string{str}
		return
	}
	vals, err := cast.ToStringSliceE(raw)
	if err != nil {
		b.fail(key, err)
		return
	}
	*target = vals
}

// section returns a binder over a nested map, or nil when key is absent.
func (b *binder) section(key string) *binder {
	raw, ok := b.s.value(key)
	if !ok {
		return nil
	}
	nested, err := newSettings(raw)
	if err != nil {
		b.fail(key, err)
		return nil
	}
	return &binder{s: nested}
}

// parseToggle reads on/off style values. Strings accept on/off, yes/no and
// anything strconv.ParseBool understands.
func parseToggle(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return parseSwitch(v)
	default:
		return cast.ToBoolE(v)
	}
}

func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return false, nil
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", raw)
	}
	return b, nil
}

// parseDuration reads a Go duration string, or a bare number in unit. The
// unit is milliseconds for interval and timeout, seconds for duration.
func parseDuration(raw interface{}, unit time.Duration) (time.Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(n * float64(unit)), nil
		}
		return time.ParseDuration(v)
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration type %T", raw)
		}
		return time.Duration(n * float64(unit)), nil
	}
}
