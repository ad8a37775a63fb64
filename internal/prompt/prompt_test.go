package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-mdgen/pkg/output"
)

var _ output.Confirmer = (*OverwriteConfirmer)(nil)

type scriptedDriver struct {
	choices []int
	asked   []string
}

func (d *scriptedDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	return false, errors.New("unexpected confirm")
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.choices) == 0 {
		return 0, errors.New("no scripted answer")
	}
	choice := d.choices[0]
	d.choices = d.choices[1:]
	return choice, nil
}

func TestOverwriteConfirmer_SingleAnswers(t *testing.T) {
	driver := &scriptedDriver{choices: []int{ChoiceOverwrite, ChoiceSkip}}
	c := NewOverwriteConfirmer(driver)
	ctx := context.Background()

	if ok, err := c.ConfirmOverwrite(ctx, "a.md"); err != nil || !ok {
		t.Fatalf("first answer = %v, %v; want true", ok, err)
	}
	if ok, err := c.ConfirmOverwrite(ctx, "b.md"); err != nil || ok {
		t.Fatalf("second answer = %v, %v; want false", ok, err)
	}
	if len(driver.asked) != 2 || driver.asked[1] != "b.md already exists." {
		t.Fatalf("unexpected prompts: %v", driver.asked)
	}
}

func TestOverwriteConfirmer_RemembersAll(t *testing.T) {
	for _, tc := range []struct {
		choice int
		want   bool
	}{
		{choice: ChoiceOverwriteAll, want: true},
		{choice: ChoiceSkipAll, want: false},
	} {
		t.Run(fmt.Sprint(tc.choice), func(t *testing.T) {
			driver := &scriptedDriver{choices: []int{tc.choice}}
			c := NewOverwriteConfirmer(driver)
			for i := 0; i < 3; i++ {
				ok, err := c.ConfirmOverwrite(context.Background(), "x.md")
				if err != nil || ok != tc.want {
					t.Fatalf("answer %d = %v, %v; want %v", i, ok, err, tc.want)
				}
			}
			if len(driver.asked) != 1 {
				t.Fatalf("expected a single prompt, got %d", len(driver.asked))
			}
		})
	}
}

func TestOverwriteConfirmer_Abort(t *testing.T) {
	c := NewOverwriteConfirmer(&scriptedDriver{choices: []int{ChoiceAbort}})
	if _, err := c.ConfirmOverwrite(context.Background(), "x.md"); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestStatic(t *testing.T) {
	ctx := context.Background()

	ok, err := Static{Answer: true}.Confirm(ctx, ConfirmConfig{})
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}

	cfg := SelectConfig{Options: []string{"a", "b"}, DefaultIndex: 1}
	if idx, _ := (Static{Index: 0}).Select(ctx, cfg); idx != 0 {
		t.Fatalf("Select = %d, want 0", idx)
	}
	if idx, _ := (Static{Index: 9}).Select(ctx, cfg); idx != 1 {
		t.Fatalf("Select out of range = %d, want default 1", idx)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := (Static{}).Confirm(cancelled, ConfirmConfig{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStatic_AsOverwriteDriver(t *testing.T) {
	c := NewOverwriteConfirmer(Static{Index: ChoiceOverwriteAll})
	if ok, err := c.ConfirmOverwrite(context.Background(), "x.md"); err != nil || !ok {
		t.Fatalf("ConfirmOverwrite = %v, %v", ok, err)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if !errors.Is(translateSurveyErr(terminal.InterruptErr), ErrAborted) {
		t.Fatalf("interrupt should map to ErrAborted")
	}
	other := errors.New("io")
	if translateSurveyErr(other) != other {
		t.Fatalf("other errors pass through")
	}
}

func TestSurveyDriver_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewSurveyDriver(nil)
	if _, err := d.Confirm(ctx, ConfirmConfig{Message: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := d.Select(ctx, SelectConfig{Options: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
