package memory_test

import (
	"strings"
	"testing"

	"github.com/p-n-ai/pai-insights/internal/memory"
)

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		persona string
		want    string
	}{
		{memory.PersonaStudent, "The user is a student."},
		{memory.PersonaTeacher, "The user is a teacher."},
		{memory.PersonaParent, "The user is a parent."},
		{"principal", "Default to student-supportive mode."},
		{"", "Default to student-supportive mode."},
	}

	for _, tt := range tests {
		got := memory.SystemPrompt(tt.persona)
		if !strings.HasPrefix(got, "You are BrightPath AI") {
			t.Errorf("SystemPrompt(%q) missing base prompt", tt.persona)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("SystemPrompt(%q) does not contain %q", tt.persona, tt.want)
		}
	}
}

func TestValidPersona(t *testing.T) {
	if !memory.ValidPersona(memory.PersonaParent) {
		t.Error("ValidPersona(parent) = false")
	}
	if memory.ValidPersona("admin") {
		t.Error("ValidPersona(admin) = true")
	}
}
