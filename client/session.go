package client

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

// Session is the identity a Client acts as. It is set by Login and torn down by Logout.
type Session struct {
	Token string       `json:"token"`
	User  user.Profile `json:"user"`

	path string // backing file; empty means memory only
}

// LoadSession hydrates a Session from the JSON file at path.
// A missing file yields an empty, unauthenticated Session bound to path.
func LoadSession(path string) (*Session, error) {
	sess := &Session{path: path}
	if path == "" {
		return sess, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sess, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}
	if err = json.Unmarshal(data, sess); err != nil {
		return nil, errors.Wrap(err, "decoding session file")
	}
	return sess, nil
}

func (s *Session) Authenticated() bool { return s != nil && s.Token != "" }

// HasRole reports whether the session user has role.
func (s *Session) HasRole(role string) bool {
	return s.Authenticated() && s.User.Role == role
}

func (s *Session) set(token string, profile user.Profile) {
	s.Token = token
	s.User = profile
}

// Save persists the session to its backing file, readable by the owner only.
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(ioutil.WriteFile(s.path, data, 0600), "writing session file")
}

// Clear forgets the identity and removes the backing file.
func (s *Session) Clear() error {
	s.Token = ""
	s.User = user.Profile{}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
