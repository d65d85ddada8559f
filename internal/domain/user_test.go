package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserJSON_UsesSearchKeyNames(t *testing.T) {
	user := User{
		BaseRecord: BaseRecord{ID: 7, CreatedAt: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		Username:   "alice",
		FirstName:  "Alice",
		LastName:   "Liddell",
		Status:     []string{"active"},
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	body := string(raw)
	for _, want := range []string{`"id":7`, `"firstName":"Alice"`, `"createdAt":"2020-01-02T00:00:00Z"`, `"status":["active"]`} {
		if !strings.Contains(body, want) {
			t.Errorf("json should contain %s, got: %s", want, body)
		}
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ann", "Lee", "Ann Lee"},
		{"Ann", "", "Ann"},
		{"", "Lee", "Lee"},
		{"", "", ""},
	}
	for _, tt := range tests {
		got := User{FirstName: tt.first, LastName: tt.last}.FullName()
		if got != tt.want {
			t.Errorf("FullName(%q, %q) = %q; want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestTaskJSON(t *testing.T) {
	task := Task{BaseRecord: BaseRecord{ID: 1}, Code: "TASK-0001", EstimatedHours: 2.5}

	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if !strings.Contains(string(raw), `"estimatedHours":2.5`) {
		t.Errorf("unexpected json: %s", raw)
	}
}
