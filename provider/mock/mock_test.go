package mock

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider_Name(t *testing.T) {
	m := New()
	if got := m.Name(); got != "mock" {
		t.Errorf("Name() = %q, want %q", got, "mock")
	}
}

func TestMockProvider_Generate_DefaultResponse(t *testing.T) {
	m := New()
	resp, err := m.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != defaultResponse {
		t.Errorf("Generate() text = %q, want %q", resp.Text, defaultResponse)
	}
}

func TestMockProvider_Generate_CyclesResponses(t *testing.T) {
	m := New("first", "second", "third")

	want := []string{"first", "second", "third", "first"}
	for i, w := range want {
		resp, err := m.Generate(context.Background(), "p")
		if err != nil {
			t.Fatalf("Generate() call %d error = %v", i, err)
		}
		if resp.Text != w {
			t.Errorf("Generate() call %d = %q, want %q", i, resp.Text, w)
		}
	}
}

func TestMockProvider_RecordsPrompts(t *testing.T) {
	m := New("ok")
	_, _ = m.Generate(context.Background(), "one")
	_, _ = m.Generate(context.Background(), "two")
	got := m.Prompts()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Prompts() = %v, want [one two]", got)
	}
}

func TestMockProvider_Failing(t *testing.T) {
	boom := errors.New("boom")
	m := Failing(boom)
	if _, err := m.Generate(context.Background(), "p"); !errors.Is(err, boom) {
		t.Errorf("Generate() error = %v, want boom", err)
	}
}

func TestMockProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("x").Generate(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
