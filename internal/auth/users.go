package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// UserStore holds the two env-configured principals. Passwords are hashed at
// boot so plaintext never lives past startup.
type UserStore struct {
	hashes map[string][]byte
	roles  map[string]Role
}

func NewUserStore(adminPassword, viewerPassword string) (*UserStore, error) {
	s := &UserStore{
		hashes: make(map[string][]byte),
		roles:  make(map[string]Role),
	}
	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 12)
		if err != nil {
			return nil, err
		}
		s.hashes["admin"] = hash
		s.roles["admin"] = RoleAdmin
	}
	if viewerPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(viewerPassword), 12)
		if err != nil {
			return nil, err
		}
		s.hashes["viewer"] = hash
		s.roles["viewer"] = RoleViewer
	}
	return s, nil
}

func (s *UserStore) Authenticate(username, password string) (Role, error) {
	hash, ok := s.hashes[username]
	if !ok {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	return s.roles[username], nil
}
