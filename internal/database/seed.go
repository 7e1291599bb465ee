package database

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jimdaga/pomodo/internal/store"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the development data file.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Modes    []SeedMode    `yaml:"modes"`
	Tasks    []SeedTask    `yaml:"tasks"`
	Projects []SeedProject `yaml:"projects"`
}

// SeedMode is a timing preset. The first mode becomes the user's current one.
type SeedMode struct {
	Name       string `yaml:"name"`
	Pomo       int    `yaml:"pomo"`
	ShortBreak int    `yaml:"short_break"`
	LongBreak  int    `yaml:"long_break"`
}

type SeedTask struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Estimated   int      `yaml:"estimated"`
	Tags        []string `yaml:"tags"`
	Subtasks    []string `yaml:"subtasks"`
}

type SeedProject struct {
	Name  string     `yaml:"name"`
	Tasks []SeedTask `yaml:"tasks"`
}

// ParseSeed decodes a seed file. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	for i, u := range seed.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("seed user %d missing required field: username", i)
		}
		if u.Password == "" {
			return nil, fmt.Errorf("seed user %s missing required field: password", u.Username)
		}
	}
	return &seed, nil
}

// LoadSeed reads the seed file at path, or the built-in one when path is empty.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// SeedDevData populates the database with seed users and their data.
// Idempotent: users that already exist are skipped.
func SeedDevData(ctx context.Context, db *gorm.DB, seed *Seed) error {
	s := store.New(db)

	for _, u := range seed.Users {
		if _, err := s.UserByUsername(ctx, u.Username); err == nil {
			slog.Info("Seed user already exists, skipping", "username", u.Username)
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := seedUser(ctx, s, u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
	}
	return nil
}

func seedUser(ctx context.Context, s *store.Store, u SeedUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := s.CreateUser(ctx, u.Username, string(hash))
	if err != nil {
		return err
	}

	for i, m := range u.Modes {
		mode, err := s.CreateMode(ctx, user.ID, store.ModeInput{
			Name:       m.Name,
			Pomo:       m.Pomo,
			ShortBreak: m.ShortBreak,
			LongBreak:  m.LongBreak,
		})
		if err != nil {
			return err
		}
		if i == 0 {
			if _, err := s.SetCurrentMode(ctx, user.ID, mode.ID); err != nil {
				return err
			}
		}
	}

	for _, t := range u.Tasks {
		if _, err := s.CreateTask(ctx, user.ID, t.input()); err != nil {
			return err
		}
	}

	for _, p := range u.Projects {
		inputs := make([]store.TaskInput, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			inputs = append(inputs, t.input())
		}
		if _, err := s.CreateProject(ctx, user.ID, p.Name, inputs); err != nil {
			return err
		}
	}

	slog.Info("Seeded dev data",
		"username", u.Username,
		"modes", len(u.Modes),
		"tasks", len(u.Tasks),
		"projects", len(u.Projects),
	)
	return nil
}

func (t SeedTask) input() store.TaskInput {
	in := store.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Estimated:   t.Estimated,
	}
	for _, name := range t.Tags {
		in.Tags = append(in.Tags, store.TagInput{Name: name})
	}
	for _, title := range t.Subtasks {
		title := title
		in.Subtasks = append(in.Subtasks, store.SubtaskInput{Title: &title})
	}
	return in
}
