package draft

import "testing"

func TestCodec(t *testing.T) {
	c := NewCodec("")

	t.Run("Empty prefix falls back to the default", func(t *testing.T) {
		if c.Prefix() != DefaultPrefix {
			t.Errorf("Expected %q, got %q", DefaultPrefix, c.Prefix())
		}
	})

	t.Run("Encode concatenates verbatim", func(t *testing.T) {
		if got := c.Encode("assignment_7"); got != "boxsuk-assignment_assignment_7" {
			t.Errorf("Unexpected key %q", got)
		}
	})

	t.Run("Decode round trips", func(t *testing.T) {
		id, ok := c.Decode(c.Encode("Assignment-12b"))
		if !ok || id != "Assignment-12b" {
			t.Errorf("Expected Assignment-12b, got %q ok=%v", id, ok)
		}
	})

	t.Run("Decode rejects foreign keys", func(t *testing.T) {
		for _, key := range []string{"other_assignment_1", "boxsuk-assignment", ""} {
			if _, ok := c.Decode(key); ok {
				t.Errorf("Expected %q to be rejected", key)
			}
		}
	})
}

func TestDisplaySuffix(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"assignment_7", "7"},
		{"Assignment-12", "12"},
		{"ASSIGNMENT3", "3"},
		{"assignment", ""},
		{"task_assignment_4", "task_assignment_4"},
		{"defaultAssignment", "defaultAssignment"},
		{"assignment__x", "_x"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := DisplaySuffix(tt.id); got != tt.want {
				t.Errorf("DisplaySuffix(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestLabelAndResolveID(t *testing.T) {
	if Label("assignment_") != DefaultID {
		t.Errorf("Expected empty suffix to label as %q", DefaultID)
	}
	if Label("assignment_9") != "9" {
		t.Errorf("Expected label 9, got %q", Label("assignment_9"))
	}
	if ResolveID("  ", "") != DefaultID {
		t.Error("Expected blank id to resolve to the default sentinel")
	}
	if ResolveID("", "fallback") != "fallback" {
		t.Error("Expected blank id to resolve to the configured fallback")
	}
	if ResolveID("assignment_1", "fallback") != "assignment_1" {
		t.Error("Expected explicit id to be kept")
	}
}
