package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fn      func() error
		wantErr bool
	}{
		{"success", func() error { return nil }, false},
		{"failure", func() error { return errors.New("backend unreachable") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, "Submitting photos", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgressWithSteps_StopsAtFirstError(t *testing.T) {
	var ran []string
	step := func(name string, err error) ProgressStep {
		return ProgressStep{Message: name, Fn: func() error {
			ran = append(ran, name)
			return err
		}}
	}

	boom := errors.New("boom")
	err := ShowProgressWithSteps(context.Background(), []ProgressStep{
		step("load photos", nil),
		step("submit", boom),
		step("save result", nil),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ShowProgressWithSteps() error = %v, want wrapped boom", err)
	}
	if len(ran) != 2 || ran[1] != "submit" {
		t.Errorf("steps run = %v", ran)
	}

	if err := ShowProgressWithSteps(context.Background(), nil); err != nil {
		t.Errorf("empty steps error = %v", err)
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("isTerminal(buffer) = true")
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	if isTerminal(w) {
		t.Error("isTerminal(pipe) = true")
	}
}
