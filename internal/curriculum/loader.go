package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Class is a master-data record for one class group, e.g. class "5" in
// phase C.
type Class struct {
	Name  string `yaml:"name"`
	Phase string `yaml:"phase"` // A, B or C
	Grade string `yaml:"grade"`
}

// SubjectInfo is a master-data record for one taught subject.
type SubjectInfo struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// masterFile is the on-disk shape of a master-data YAML file. A file may
// carry any subset of the sections.
type masterFile struct {
	Classes  []Class       `yaml:"classes"`
	Subjects []SubjectInfo `yaml:"subjects"`
	Schedule []struct {
		Class     string `yaml:"class"`
		DayOfWeek int    `yaml:"day_of_week"`
		Period    int    `yaml:"period"`
		Subject   string `yaml:"subject"`
	} `yaml:"weekly_schedule"`
}

// MasterData loads and caches school master data (classes, subjects and
// optional seed weekly-schedule slots) from YAML files under a root
// directory.
type MasterData struct {
	rootDir  string
	mu       sync.RWMutex
	classes  map[string]Class
	subjects map[string]SubjectInfo
	schedule []ScheduleSlot
}

// LoadMasterData walks rootDir and loads every YAML file.
func LoadMasterData(rootDir string) (*MasterData, error) {
	m := &MasterData{
		rootDir:  rootDir,
		classes:  make(map[string]Class),
		subjects: make(map[string]SubjectInfo),
	}

	if err := m.loadAll(); err != nil {
		return nil, fmt.Errorf("loading master data: %w", err)
	}

	slog.Info("master data loaded",
		"classes", len(m.classes),
		"subjects", len(m.subjects),
		"seed_slots", len(m.schedule),
	)
	return m, nil
}

// GetClass returns a class by name.
func (m *MasterData) GetClass(name string) (Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[name]
	return c, ok
}

// GetSubject returns a subject by name.
func (m *MasterData) GetSubject(name string) (SubjectInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[name]
	return s, ok
}

// Classes returns all loaded classes.
func (m *MasterData) Classes() []Class {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}
	return out
}

// Subjects returns all loaded subjects.
func (m *MasterData) Subjects() []SubjectInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SubjectInfo, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out
}

// SeedSchedule returns the weekly-schedule slots declared in master data,
// used to pre-populate an empty weekly_schedule collection.
func (m *MasterData) SeedSchedule() []ScheduleSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ScheduleSlot{}, m.schedule...)
}

func (m *MasterData) loadAll() error {
	return filepath.Walk(m.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return m.loadFile(path)
	})
}

func (m *MasterData) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file masterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid master-data YAML", "path", path, "error", err)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range file.Classes {
		if c.Name == "" {
			continue
		}
		m.classes[c.Name] = c
	}
	for _, s := range file.Subjects {
		if s.Name == "" {
			continue
		}
		m.subjects[s.Name] = s
	}
	for _, slot := range file.Schedule {
		if slot.Class == "" || slot.Subject == "" {
			continue
		}
		m.schedule = append(m.schedule, ScheduleSlot{
			Class:     slot.Class,
			DayOfWeek: time.Weekday(slot.DayOfWeek % 7),
			Period:    slot.Period,
			Subject:   slot.Subject,
		})
	}
	return nil
}
