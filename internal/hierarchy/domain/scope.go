package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// AccessScope is the set of users whose data a requester may see.
// It is computed per request and never persisted.
type AccessScope struct {
	Privileged     bool
	AllowedUserIDs map[int64]struct{}
}

// PrivilegedScope grants organization-wide visibility
func PrivilegedScope() AccessScope {
	return AccessScope{Privileged: true}
}

// NewScope builds a restricted scope from ids, dropping non-positive values
func NewScope(ids ...int64) AccessScope {
	s := AccessScope{AllowedUserIDs: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id > 0 {
			s.AllowedUserIDs[id] = struct{}{}
		}
	}
	return s
}

// SelfScope is the fail-closed scope
func SelfScope(userID int64) AccessScope {
	return NewScope(userID)
}

// Contains reports whether id is visible under the scope
func (s AccessScope) Contains(id int64) bool {
	if s.Privileged {
		return true
	}
	_, ok := s.AllowedUserIDs[id]
	return ok
}

// IDs returns the allowed ids in ascending order
func (s AccessScope) IDs() []int64 {
	ids := make([]int64, 0, len(s.AllowedUserIDs))
	for id := range s.AllowedUserIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len is the number of allowed ids
func (s AccessScope) Len() int {
	return len(s.AllowedUserIDs)
}

// Fingerprint identifies the scope in cache keys
func (s AccessScope) Fingerprint() string {
	if s.Privileged {
		return "all"
	}
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
