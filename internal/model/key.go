package model

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Entity kinds. Keys are hierarchical: a Conference lives under the
// organizer's Profile and a Session lives under its Conference.
const (
	KindProfile    = "Profile"
	KindConference = "Conference"
	KindSession    = "Session"
)

// ErrInvalidKey is returned by DecodeKey for anything that is not a
// well-formed websafe key.
var ErrInvalidKey = errors.New("invalid key")

// Key identifies an entity by its ownership path. Profile keys are named
// (the user id); Conference and Session keys carry a numeric ID allocated
// by the store.
type Key struct {
	Kind   string
	Name   string
	ID     int64
	Parent *Key
}

// ProfileKey returns the root key of the profile owned by userID.
func ProfileKey(userID string) *Key {
	return &Key{Kind: KindProfile, Name: userID}
}

// ConferenceKey returns the key of conference id organized by userID.
func ConferenceKey(organizerUserID string, id int64) *Key {
	return &Key{Kind: KindConference, ID: id, Parent: ProfileKey(organizerUserID)}
}

// SessionKey returns the key of session id under the conference key.
func SessionKey(conference *Key, id int64) *Key {
	return &Key{Kind: KindSession, ID: id, Parent: conference}
}

// Root returns the top-most ancestor, which identifies the entity group.
func (k *Key) Root() *Key {
	r := k
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Equal reports whether both keys describe the same path.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.Kind != o.Kind || k.Name != o.Name || k.ID != o.ID {
		return false
	}
	return k.Parent.Equal(o.Parent)
}

// HasAncestor reports whether a is k itself or one of its parents.
func (k *Key) HasAncestor(a *Key) bool {
	for p := k; p != nil; p = p.Parent {
		if p.Equal(a) {
			return true
		}
	}
	return false
}

// String renders the path, e.g. "Profile:alice/Conference:12". Names are
// path-escaped so a user id cannot spell out another key.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	var elems []string
	for p := k; p != nil; p = p.Parent {
		id := url.PathEscape(p.Name)
		if p.Name == "" {
			id = strconv.FormatInt(p.ID, 10)
		}
		elems = append(elems, p.Kind+":"+id)
	}
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	return strings.Join(elems, "/")
}

// Encode returns the websafe form of the key.
func (k *Key) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(k.String()))
}

// DecodeKey parses a websafe key produced by Encode.
func DecodeKey(s string) (*Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidKey
	}
	var key *Key
	for _, elem := range strings.Split(string(raw), "/") {
		kind, id, ok := strings.Cut(elem, ":")
		if !ok || id == "" {
			return nil, ErrInvalidKey
		}
		next := &Key{Kind: kind, Parent: key}
		switch kind {
		case KindProfile:
			if key != nil {
				return nil, ErrInvalidKey
			}
			name, err := url.PathUnescape(id)
			if err != nil {
				return nil, ErrInvalidKey
			}
			next.Name = name
		case KindConference, KindSession:
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil || n <= 0 {
				return nil, ErrInvalidKey
			}
			next.ID = n
		default:
			return nil, ErrInvalidKey
		}
		key = next
	}
	if err := validatePath(key); err != nil {
		return nil, err
	}
	return key, nil
}

func validatePath(k *Key) error {
	switch k.Kind {
	case KindProfile:
		if k.Parent != nil {
			return ErrInvalidKey
		}
	case KindConference:
		if k.Parent == nil || k.Parent.Kind != KindProfile {
			return ErrInvalidKey
		}
	case KindSession:
		if k.Parent == nil || k.Parent.Kind != KindConference {
			return ErrInvalidKey
		}
	}
	if k.Parent != nil {
		return validatePath(k.Parent)
	}
	return nil
}
