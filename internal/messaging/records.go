package messaging

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/goliatone/go-jsonform/pkg/form"
)

// UserModel is the record type channel owners, managers and subscribers
// link to.
const UserModel = "User"

// ManagerForm is one row of a channel's managers list.
var ManagerForm = form.Define("manager").
	Title("Manager").
	Field("user", form.Link("User", UserModel)).
	MustBuild()

// ChannelForm edits a Channel.
var ChannelForm = form.Define("channel").
	Title("Channel").
	Help("Channels group subscribers around one exchange.").
	Meta("inline_edit", false).
	Meta("allow_actions", true).
	Field("name", form.String("Name", form.Rules("max=120"))).
	Field("code_name", form.String("Internal name", form.Rules("max=64"))).
	Field("description", form.Text("Description", form.Optional())).
	Field("owner", form.Link("Owner", UserModel, form.Optional())).
	Field("typ", form.Integer("Type", form.Choices(ChannelTypes...), form.Default(ChannelChat))).
	Field("managers", form.ListNode("Managers", ManagerForm)).
	Field("save", form.Button("Save", form.Cmd("save::add_edit_form"))).
	MustBuild()

// SubscriptionForm edits a Subscription.
var SubscriptionForm = form.Define("subscription").
	Title("Subscription").
	Field("channel", form.Link("Channel", "Channel")).
	Field("user", form.Link("User", UserModel)).
	Field("is_muted", form.Boolean("Mute the channel", form.Optional(), form.Default(false))).
	Field("inform_me", form.Boolean("Inform when I'm mentioned", form.Optional(), form.Default(false))).
	Field("can_leave", form.Boolean("Membership is not obligatory", form.Optional(), form.Default(true))).
	Field("save", form.Button("Save", form.Cmd("save::add_edit_form"))).
	MustBuild()

// Channel is a named group of subscribers backed by one exchange.
type Channel struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	CodeName    string   `yaml:"code_name"`
	Description string   `yaml:"description"`
	Owner       string   `yaml:"owner"`
	Type        int      `yaml:"typ"`
	Managers    []string `yaml:"managers"`
}

var _ form.Displayable = Channel{}

// IsPersisted reports whether the channel has been stored.
func (c Channel) IsPersisted() bool { return c.Key != "" }

// IdentityKey returns the storage key.
func (c Channel) IdentityKey() string { return c.Key }

// TypeName returns "Channel".
func (c Channel) TypeName() string { return "Channel" }

// Label returns the channel name.
func (c Channel) Label() string { return c.Name }

// ExchangeName is the exchange messages for this channel are published to.
func (c Channel) ExchangeName() string { return c.CodeName }

// Values returns the channel as ChannelForm data.
func (c Channel) Values() map[string]any {
	managers := make([]any, 0, len(c.Managers))
	for _, m := range c.Managers {
		managers = append(managers, map[string]any{"user": m})
	}
	values := map[string]any{
		"name":     c.Name,
		"typ":      c.Type,
		"managers": managers,
	}
	if c.CodeName != "" {
		values["code_name"] = c.CodeName
	}
	if c.Description != "" {
		values["description"] = c.Description
	}
	if c.Owner != "" {
		values["owner"] = c.Owner
	}
	return values
}

// ChannelFromInstance reads a channel back from a bound ChannelForm
// instance. key is kept from the record being edited.
func ChannelFromInstance(key string, inst *form.Instance) (Channel, error) {
	if name := inst.Definition().Name(); name != ChannelForm.Name() {
		return Channel{}, fmt.Errorf("messaging: %q is not a channel form", name)
	}
	values := inst.Values()
	ch := Channel{
		Key:         key,
		Name:        cast.ToString(values["name"]),
		CodeName:    cast.ToString(values["code_name"]),
		Description: cast.ToString(values["description"]),
		Owner:       cast.ToString(values["owner"]),
		Type:        cast.ToInt(values["typ"]),
	}
	for _, row := range inst.Rows("managers") {
		if user, ok := row.Value("user"); ok {
			ch.Managers = append(ch.Managers, cast.ToString(user))
		}
	}
	return ch, nil
}

// Subscription links a user to a channel.
type Subscription struct {
	Key      string `yaml:"key"`
	Channel  string `yaml:"channel"`
	User     string `yaml:"user"`
	Muted    bool   `yaml:"is_muted"`
	InformMe bool   `yaml:"inform_me"`
	CanLeave bool   `yaml:"-"`
}

var _ form.Displayable = Subscription{}

// NewSubscription subscribes user to channel. Membership is optional by
// default.
func NewSubscription(channel, user string) Subscription {
	return Subscription{Channel: channel, User: user, CanLeave: true}
}

// IsPersisted reports whether the subscription has been stored.
func (s Subscription) IsPersisted() bool { return s.Key != "" }

// IdentityKey returns the storage key.
func (s Subscription) IdentityKey() string { return s.Key }

// TypeName returns "Subscription".
func (s Subscription) TypeName() string { return "Subscription" }

// Label describes the membership.
func (s Subscription) Label() string {
	return fmt.Sprintf("%s in %s", s.User, s.Channel)
}

// ExchangeName is the subscriber's private exchange.
func (s Subscription) ExchangeName() string { return s.User }
