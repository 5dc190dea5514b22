package internal

import (
	"errors"
	"testing"
)

func TestValidate_ClassSelection(t *testing.T) {
	tests := []struct {
		name       string
		in         ClassSelection
		wantFields []string
	}{
		{
			name: "valid",
			in:   ClassSelection{Semester: "5", Section: "A", Subject: "DBMS"},
		},
		{
			name:       "blank subject",
			in:         ClassSelection{Semester: "5", Section: "A", Subject: "   "},
			wantFields: []string{"subject"},
		},
		{
			name:       "semester out of range",
			in:         ClassSelection{Semester: "9", Section: "A", Subject: "DBMS"},
			wantFields: []string{"semester"},
		},
		{
			name:       "everything missing",
			in:         ClassSelection{},
			wantFields: []string{"semester", "section", "subject"},
		},
		{
			name:       "lowercase section",
			in:         ClassSelection{Semester: "1", Section: "a", Subject: "Maths"},
			wantFields: []string{"section"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if len(ve.Fields) != len(tt.wantFields) {
				t.Errorf("Fields = %v, want keys %v", ve.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if ve.Fields[f] == "" {
					t.Errorf("missing message for %s in %v", f, ve.Fields)
				}
			}
		})
	}
}

func TestValidate_NotBlankMessage(t *testing.T) {
	err := Validate(EnrollForm{Name: " ", USN: "1AM22CI001", Semester: "3", Section: "B"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := ve.Fields["name"]; got != "this field cannot be blank" {
		t.Errorf("Fields[name] = %q", got)
	}
}
