package models

import (
	"encoding/json"
	"testing"
)

func TestTaskJSONShape(t *testing.T) {
	task := Task{
		ID:          3,
		UserID:      1,
		Title:       "Learn Vue",
		Description: "Read about refs",
		Estimated:   2,
		Projects:    []Project{{ID: 9}},
	}

	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"id", "title", "description", "estimated", "done", "gone_through", "in_project", "tags", "subtasks", "project_tasks"}
	for _, key := range want {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if _, ok := got["user_id"]; ok {
		t.Error("user_id must not be serialized")
	}
	if tags, ok := got["tags"].([]interface{}); !ok || len(tags) != 0 {
		t.Errorf("expected empty tags array, got %v", got["tags"])
	}
	if ids, ok := got["project_tasks"].([]interface{}); !ok || len(ids) != 1 || ids[0] != float64(9) {
		t.Errorf("expected project_tasks [9], got %v", got["project_tasks"])
	}
}

func TestProjectJSONEmptyTasks(t *testing.T) {
	raw, err := json.Marshal(Project{ID: 1, Name: "Nuxt Project"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"id":1,"name":"Nuxt Project","tasks":[]}`
	if string(raw) != expected {
		t.Errorf("expected %s, got %s", expected, raw)
	}
}

func TestStatsJSONUsesCalendarDay(t *testing.T) {
	day, err := ParseDay("2022-11-11")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}

	raw, err := json.Marshal(Stats{ID: 4, Day: day, ChoresDone: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"id":4,"day":"2022-11-11","chores_done":2}`
	if string(raw) != expected {
		t.Errorf("expected %s, got %s", expected, raw)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "11/11/2022", "2022-13-01"} {
		if _, err := ParseDay(in); err == nil {
			t.Errorf("ParseDay(%q) expected error", in)
		}
	}
}
