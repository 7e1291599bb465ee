package database

import (
	"context"
	"strings"
	"testing"

	"github.com/jimdaga/pomodo/internal/models"
	"github.com/jimdaga/pomodo/internal/testutil"
)

func TestParseSeedRejectsUnknownKeys(t *testing.T) {
	_, err := ParseSeed([]byte("users:\n  - username: dev\n    password: x\n    pasword: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseSeedRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"no username", "users:\n  - password: x\n", "username"},
		{"no password", "users:\n  - username: dev\n", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestSeedDevDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	seed, err := LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := SeedDevData(ctx, db, seed); err != nil {
			t.Fatalf("SeedDevData run %d: %v", i+1, err)
		}
	}

	var users, tasks, projects, modes int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Task{}).Count(&tasks)
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.Mode{}).Count(&modes)

	if users != 1 || tasks != 4 || projects != 1 || modes != 2 {
		t.Errorf("unexpected counts: users=%d tasks=%d projects=%d modes=%d", users, tasks, projects, modes)
	}

	var dev models.User
	if err := db.Where("username = ?", "dev").First(&dev).Error; err != nil {
		t.Fatal(err)
	}
	if dev.CurrentModeID == nil {
		t.Error("expected first mode to be current")
	}

	var inProject int64
	db.Model(&models.Task{}).Where("in_project = ?", true).Count(&inProject)
	if inProject != 2 {
		t.Errorf("expected 2 project tasks, got %d", inProject)
	}
}
