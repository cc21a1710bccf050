package quizgen

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed bank/*.yaml
var defaultBankFS embed.FS

// bankFile is one subject's YAML file.
type bankFile struct {
	Subject   string     `yaml:"subject"`
	Questions []Question `yaml:"questions"`
}

// Bank holds fallback questions keyed by subject.
type Bank struct {
	subjects map[string][]Question // keyed by lower-cased subject
	names    map[string]string
	mu       sync.RWMutex
}

// DefaultBank returns the built-in question bank.
func DefaultBank() *Bank {
	b := newBank()
	sub, err := fs.Sub(defaultBankFS, "bank")
	if err != nil {
		panic(fmt.Sprintf("open built-in question bank: %v", err))
	}
	if err := b.load(sub); err != nil {
		panic(fmt.Sprintf("load built-in question bank: %v", err))
	}
	return b
}

// LoadBank returns the built-in bank overlaid with the YAML files under dir.
// A file replaces the built-in questions of its subject. An empty dir
// returns the built-in bank.
func LoadBank(dir string) (*Bank, error) {
	b := DefaultBank()
	if dir == "" {
		return b, nil
	}
	if err := b.load(os.DirFS(dir)); err != nil {
		return nil, fmt.Errorf("loading question bank: %w", err)
	}
	slog.Info("question bank loaded", "dir", dir, "subjects", len(b.subjects))
	return b, nil
}

func newBank() *Bank {
	return &Bank{
		subjects: make(map[string][]Question),
		names:    make(map[string]string),
	}
}

func (b *Bank) load(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		var f bankFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			slog.Warn("skipping invalid question bank YAML", "path", p, "error", err)
			return nil
		}
		if strings.TrimSpace(f.Subject) == "" {
			return nil
		}

		questions := make([]Question, 0, len(f.Questions))
		for i, q := range f.Questions {
			q.Subject = f.Subject
			if q.ID == "" {
				q.ID = fmt.Sprintf("%s-%d", f.Subject, i+1)
			}
			if err := q.Validate(); err != nil {
				slog.Warn("skipping invalid bank question", "path", p, "id", q.ID, "error", err)
				continue
			}
			questions = append(questions, q)
		}

		key := strings.ToLower(f.Subject)
		b.mu.Lock()
		b.subjects[key] = questions
		b.names[key] = f.Subject
		b.mu.Unlock()
		return nil
	})
}

// Questions returns up to n questions for subject, matched case-insensitively.
// n <= 0 returns every question.
func (b *Bank) Questions(subject string, n int) []Question {
	b.mu.RLock()
	defer b.mu.RUnlock()

	qs := b.subjects[strings.ToLower(strings.TrimSpace(subject))]
	if n <= 0 || n > len(qs) {
		n = len(qs)
	}
	out := make([]Question, n)
	for i := range n {
		out[i] = qs[i].clone()
	}
	return out
}

// Subjects lists the subject names in the bank, sorted.
func (b *Bank) Subjects() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
