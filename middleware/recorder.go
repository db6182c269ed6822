package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comalice/unistore"
)

// Format selects the journal encoding.
type Format int

const (
	// JSONLines writes one JSON object per line.
	JSONLines Format = iota
	// YAMLDocuments writes one YAML document per entry, separated by "---".
	YAMLDocuments
)

// Entry is one completed transition in a journal.
type Entry struct {
	Store  string    `json:"store" yaml:"store"`
	Seq    uint64    `json:"seq" yaml:"seq"`
	Kind   string    `json:"kind" yaml:"kind"`
	Action any       `json:"action,omitempty" yaml:"action,omitempty"`
	State  any       `json:"state" yaml:"state"`
	At     time.Time `json:"at" yaml:"at"`
}

// Recorder writes a journal entry for every completed transition. It is a
// debugging and audit aid; entries are not meant to restore a store.
type Recorder[S any] struct {
	format Format
	now    func() time.Time

	mu  sync.Mutex
	w   io.Writer
	seq uint64
	err error
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder[S any](w io.Writer, format Format) *Recorder[S] {
	return &Recorder[S]{w: w, format: format, now: time.Now}
}

// Intercept implements unistore.Middleware.
func (r *Recorder[S]) Intercept(phase unistore.Phase, store unistore.Handle[S], state S, action any) {
	if phase != unistore.AfterReduced {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	r.seq++
	entry := Entry{
		Store: store.ID(),
		Seq:   r.seq,
		Kind:  unistore.KindOf(action),
		State: state,
		At:    r.now().UTC(),
	}
	// The replacement state of a SetState is already the entry's state.
	if _, replaced := action.(unistore.StateReplaced[S]); !replaced {
		entry.Action = action
	}

	if err := r.write(entry); err != nil {
		r.err = err
	}
}

func (r *Recorder[S]) write(entry Entry) error {
	switch r.format {
	case JSONLines:
		if err := json.NewEncoder(r.w).Encode(entry); err != nil {
			return fmt.Errorf("json encode entry %d: %w", entry.Seq, err)
		}
	case YAMLDocuments:
		data, err := yaml.Marshal(entry)
		if err != nil {
			return fmt.Errorf("yaml marshal entry %d: %w", entry.Seq, err)
		}
		if _, err := io.WriteString(r.w, "---\n"); err != nil {
			return fmt.Errorf("write entry %d: %w", entry.Seq, err)
		}
		if _, err := r.w.Write(data); err != nil {
			return fmt.Errorf("write entry %d: %w", entry.Seq, err)
		}
	default:
		return fmt.Errorf("unknown journal format %d", r.format)
	}
	return nil
}

// Err returns the first write error. Recording stops after it.
func (r *Recorder[S]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ReadJournal decodes every entry written in format from rd. Action and
// State come back as generic maps, slices and scalars.
func ReadJournal(rd io.Reader, format Format) ([]Entry, error) {
	var entries []Entry
	switch format {
	case JSONLines:
		dec := json.NewDecoder(rd)
		for {
			var e Entry
			if err := dec.Decode(&e); err != nil {
				if errors.Is(err, io.EOF) {
					return entries, nil
				}
				return entries, fmt.Errorf("json decode entry %d: %w", len(entries)+1, err)
			}
			entries = append(entries, e)
		}
	case YAMLDocuments:
		dec := yaml.NewDecoder(rd)
		for {
			var e Entry
			if err := dec.Decode(&e); err != nil {
				if errors.Is(err, io.EOF) {
					return entries, nil
				}
				return entries, fmt.Errorf("yaml decode entry %d: %w", len(entries)+1, err)
			}
			entries = append(entries, e)
		}
	default:
		return nil, fmt.Errorf("unknown journal format %d", format)
	}
}
