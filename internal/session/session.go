// Package session owns the authenticated identity of the client: the access
// token handed out by the analyzer backend and the username it belongs to.
// The pair is persisted as a single file so the two fields can never be
// stored one without the other.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Session is the authenticated identity. Token and Username are always both
// set or both empty.
type Session struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
}

// Valid reports whether the session represents a logged-in user.
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != ""
}

// ErrNotLoggedIn is returned by operations that require a session.
var ErrNotLoggedIn = errors.New("not logged in: run `datasight login` first")

// Store persists sessions under a directory, one yaml file.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (st *Store) path() string {
	return filepath.Join(st.Dir, "session.yaml")
}

// Restore reads any previously persisted session and returns it. A missing
// file means an unauthenticated start, not an error. A half-written record
// (token without username or the reverse) restores as unauthenticated and is
// removed; validity of the token itself is only discovered when a protected
// call fails.
func (st *Store) Restore() (Session, error) {
	b, err := os.ReadFile(st.path())
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	s.Token = strings.TrimSpace(s.Token)
	s.Username = strings.TrimSpace(s.Username)
	if !s.Valid() {
		_ = st.Clear()
		return Session{}, nil
	}
	return s, nil
}

// Save persists the session atomically: the record is written to a temp file
// and renamed into place, so readers see either the old pair or the new pair.
func (st *Store) Save(s Session) error {
	if !s.Valid() {
		return errors.New("refusing to save partial session")
	}
	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp, err := os.CreateTemp(st.Dir, "session-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmpName, st.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Idempotent: clearing an absent
// session is not an error.
func (st *Store) Clear() error {
	if err := os.Remove(st.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
