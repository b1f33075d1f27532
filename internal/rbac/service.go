package rbac

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service resolves permissions from roles granted in process. The warehouse
// has a fixed set of operators, so grants are configured at startup.
type Service struct {
	mu     sync.RWMutex
	roles  map[string]Role
	grants map[int64][]string
}

// NewService constructs a Service knowing the built-in roles.
func NewService() *Service {
	s := &Service{roles: map[string]Role{}, grants: map[int64][]string{}}
	for _, role := range []Role{RoleAdmin, RoleViewer} {
		s.roles[role.Name] = role
	}
	return s
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListPermissions returns every known permission ordered by name.
func (s *Service) ListPermissions(context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(permissionDescriptions))
	for name, desc := range permissionDescriptions {
		out = append(out, Permission{Name: name, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AssignRole grants a role to a user.
func (s *Service) AssignRole(_ context.Context, userID int64, roleName string) error {
	roleName = strings.ToLower(strings.TrimSpace(roleName))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleName]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.grants[userID] {
		if existing == roleName {
			return nil
		}
	}
	s.grants[userID] = append(s.grants[userID], roleName)
	return nil
}

// EffectivePermissions returns the union of permissions of every role
// granted to the user.
func (s *Service) EffectivePermissions(_ context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := map[string]struct{}{}
	for _, name := range s.grants[userID] {
		for _, perm := range s.roles[name].Permissions {
			set[perm] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out, nil
}
