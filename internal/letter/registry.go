package letter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Registry resolves letters to classifiers. Built-in shape classifiers take
// precedence over trained templates for the same letter.
type Registry struct {
	mu        sync.RWMutex
	builtin   map[string]Classifier
	templates map[string]Classifier
}

// NewRegistry creates a registry holding the built-in A, B and C
// classifiers.
func NewRegistry(th Thresholds) *Registry {
	r := &Registry{
		builtin:   make(map[string]Classifier),
		templates: make(map[string]Classifier),
	}
	for _, c := range []Classifier{NewLetterA(th), NewLetterB(th), NewLetterC()} {
		r.builtin[c.Letter()] = c
	}
	return r
}

// Add registers a trained classifier, replacing any previous one for the
// same letter.
func (r *Registry) Add(c Classifier) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[strings.ToUpper(c.Letter())] = c
}

// Remove drops the trained classifier for a letter.
func (r *Registry) Remove(letter string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, strings.ToUpper(letter))
}

// Replace swaps the full set of trained classifiers.
func (r *Registry) Replace(cs []Classifier) {
	m := make(map[string]Classifier, len(cs))
	for _, c := range cs {
		m[strings.ToUpper(c.Letter())] = c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = m
}

// Lookup returns the classifier for a letter.
func (r *Registry) Lookup(letter string) (Classifier, error) {
	key := strings.ToUpper(letter)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.builtin[key]; ok {
		return c, nil
	}
	if c, ok := r.templates[key]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("letter %q: %w", letter, ErrUnknownLetter)
}

// Resolve turns a prompt such as "cab" into one classifier per letter.
// Whitespace and punctuation are ignored.
func (r *Registry) Resolve(prompt string) ([]Classifier, error) {
	var out []Classifier
	for _, ch := range prompt {
		if !unicode.IsLetter(ch) {
			continue
		}
		c, err := r.Lookup(string(ch))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Letters returns every recognizable letter in sorted order.
func (r *Registry) Letters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for k := range r.builtin {
		seen[k] = true
	}
	for k := range r.templates {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
