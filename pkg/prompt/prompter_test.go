package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/testsupport"
)

type stubDriver struct {
	texts     []string
	choices   []int
	toggles   []bool
	shown     []string
	questions []TextQuestion
	picks     []ChoiceQuestion
}

func (s *stubDriver) Text(_ context.Context, q TextQuestion) (string, error) {
	if len(s.texts) == 0 {
		return "", errors.New("no text scripted")
	}
	s.questions = append(s.questions, q)
	val := s.texts[0]
	s.texts = s.texts[1:]
	return val, nil
}

func (s *stubDriver) Choose(_ context.Context, q ChoiceQuestion) (int, error) {
	if len(s.choices) == 0 {
		return -1, errors.New("no choice scripted")
	}
	s.picks = append(s.picks, q)
	val := s.choices[0]
	s.choices = s.choices[1:]
	return val, nil
}

func (s *stubDriver) Toggle(_ context.Context, _ Toggle) (bool, error) {
	if len(s.toggles) == 0 {
		return false, errors.New("no toggle scripted")
	}
	val := s.toggles[0]
	s.toggles = s.toggles[1:]
	return val, nil
}

func (s *stubDriver) Show(_ context.Context, msg string) error {
	s.shown = append(s.shown, msg)
	return nil
}

var memberForm = form.Define("member").
	Title("Member").
	Field("email", form.String("Email", form.Rules("email"))).
	Field("role", form.Integer("Role", form.Optional())).
	MustBuild()

func teamForm() *form.Definition {
	return form.Define("team").
		Title("Team").
		Help("Describe the team").
		Field("name", form.String("Name")).
		Field("size", form.Integer("Size", form.Optional())).
		Field("founded", form.Date("Founded", form.Optional())).
		Field("kind", form.Integer("Kind", form.Choices(
			form.Choice{Value: 1, Label: "A"},
			form.Choice{Value: 2, Label: "B"},
		))).
		Field("secret", form.String("Secret", form.Hidden(), form.Optional())).
		Field("lead", form.Node("Lead", memberForm)).
		Field("members", form.ListNode("Members", memberForm)).
		Field("save", form.Button("Save", form.Cmd("save"))).
		MustBuild()
}

func render(t *testing.T) (*codec.Codec, codec.Output) {
	t.Helper()
	cache, _ := testsupport.NewMemoryCache(t, nil)
	c, err := codec.New(cache)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	inst := teamForm().New(form.WithValues(map[string]any{"secret": "s3"}))
	out, err := c.Serialize(testsupport.Context(), inst)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return c, out
}

func TestFill_RoundTripsThroughCodec(t *testing.T) {
	c, out := render(t)
	driver := &stubDriver{
		texts:   []string{"Core", "5", "2024-03-01", "lead@example.com", "", "m1@example.com", "2"},
		choices: []int{1},
		toggles: []bool{true, false, true},
	}

	data, err := New(WithDriver(driver)).Fill(testsupport.Context(), out)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if data["form_key"] != out.FormKey() {
		t.Fatalf("form_key not carried over: %v", data["form_key"])
	}
	if diff := cmp.Diff([]string{"Describe the team"}, driver.shown); diff != "" {
		t.Fatalf("info messages mismatch (-want +got):\n%s", diff)
	}

	inst, err := c.Deserialize(testsupport.Context(), teamForm().New(), data, true)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	want := map[string]any{
		"name":    "Core",
		"size":    5,
		"founded": "2024-03-01",
		"kind":    2,
		"secret":  "s3",
		"lead":    map[string]any{"email": "lead@example.com"},
		"members": []any{map[string]any{"email": "m1@example.com", "role": 2}},
	}
	if diff := cmp.Diff(want, inst.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"save"}, inst.Actions()); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_RetriesInvalidInput(t *testing.T) {
	_, out := render(t)
	driver := &stubDriver{
		texts:   []string{"", "Core", "many", "7", "", "lead@example.com", ""},
		choices: []int{0},
		toggles: []bool{false, false},
	}

	data, err := New(WithDriver(driver)).Fill(testsupport.Context(), out)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if data["name"] != "Core" || data["size"] != 7 {
		t.Fatalf("unexpected values name=%v size=%v", data["name"], data["size"])
	}
	if len(driver.shown) != 3 {
		t.Fatalf("expected help plus two validation messages, got %v", driver.shown)
	}
	if data["save"] != false {
		t.Fatalf("expected save not pressed, got %v", data["save"])
	}
}

func TestFill_PropagatesAbort(t *testing.T) {
	_, out := render(t)
	driver := &abortingDriver{stubDriver: &stubDriver{}}

	_, err := New(WithDriver(driver)).Fill(testsupport.Context(), out)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

type abortingDriver struct {
	*stubDriver
}

func (d *abortingDriver) Text(context.Context, TextQuestion) (string, error) {
	return "", ErrAborted
}

func TestFill_IntegerAnswersAreDecimal(t *testing.T) {
	_, out := render(t)
	driver := &stubDriver{
		texts:   []string{"Core", "1.5", "010", "", "lead@example.com", ""},
		choices: []int{0},
		toggles: []bool{false, false},
	}

	data, err := New(WithDriver(driver)).Fill(testsupport.Context(), out)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if data["size"] != 10 {
		t.Fatalf("expected size 10, got %#v", data["size"])
	}
	if len(driver.shown) != 2 {
		t.Fatalf("expected help plus one validation message, got %v", driver.shown)
	}
}

func TestFill_QuestionsFollowRenderedItems(t *testing.T) {
	def := form.Define("account").
		Field("bio", form.Text("Bio", form.Optional())).
		Field("token", form.String("Token", form.Hint("widget", "password"))).
		Field("tier", form.Integer("Tier", form.Default(2), form.Choices(
			form.Choice{Value: 1, Label: "Free"},
			form.Choice{Value: 2, Label: "Paid"},
		))).
		MustBuild()
	cache, _ := testsupport.NewMemoryCache(t, nil)
	c, err := codec.New(cache)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	out, err := c.Serialize(testsupport.Context(), def.New(form.WithValues(map[string]any{"token": "old"})))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	driver := &stubDriver{texts: []string{"", "new"}, choices: []int{0}}
	data, err := New(WithDriver(driver)).Fill(testsupport.Context(), out)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	kinds := []TextKind{driver.questions[0].Kind, driver.questions[1].Kind}
	if diff := cmp.Diff([]TextKind{TextMultiline, TextSecret}, kinds); diff != "" {
		t.Fatalf("text kinds mismatch (-want +got):\n%s", diff)
	}
	if driver.questions[1].Default != "" {
		t.Fatalf("secret default leaked: %q", driver.questions[1].Default)
	}
	pick := driver.picks[0]
	if pick.Selected != 1 || len(pick.Choices) != 2 || pick.Choices[1].Label != "Paid" {
		t.Fatalf("unexpected choice question %#v", pick)
	}
	if data["tier"] != 1 || data["token"] != "new" || data["bio"] != nil {
		t.Fatalf("unexpected submission %#v", data)
	}
}
