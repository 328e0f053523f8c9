package messaging

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Manifest lists records to provision.
type Manifest struct {
	Channels      []Channel      `yaml:"channels"`
	Subscriptions []Subscription `yaml:"subscriptions"`
}

type subscriptionFile struct {
	Subscription `yaml:",inline"`
	CanLeave     *bool `yaml:"can_leave"`
}

type manifestFile struct {
	Channels      []Channel          `yaml:"channels"`
	Subscriptions []subscriptionFile `yaml:"subscriptions"`
}

// ParseManifest decodes a YAML manifest. Subscriptions that omit can_leave
// default to true.
func ParseManifest(data []byte) (Manifest, error) {
	var raw manifestFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("messaging: decode manifest: %w", err)
	}
	out := Manifest{Channels: raw.Channels}
	for i, ch := range raw.Channels {
		if ch.CodeName == "" {
			return Manifest{}, fmt.Errorf("messaging: channel %d (%s): code_name is required", i, ch.Name)
		}
	}
	for i, sub := range raw.Subscriptions {
		s := sub.Subscription
		if s.User == "" {
			return Manifest{}, fmt.Errorf("messaging: subscription %d: user is required", i)
		}
		s.CanLeave = sub.CanLeave == nil || *sub.CanLeave
		out.Subscriptions = append(out.Subscriptions, s)
	}
	return out, nil
}

// Records returns channels then subscriptions as exchange owners.
func (m Manifest) Records() []Exchanger {
	out := make([]Exchanger, 0, len(m.Channels)+len(m.Subscriptions))
	for _, ch := range m.Channels {
		out = append(out, ch)
	}
	for _, s := range m.Subscriptions {
		out = append(out, s)
	}
	return out
}
