package core

import "strings"

// GroupSigil prefixes a group reference on the command line, e.g. "@dev".
const GroupSigil = "@"

// IsGroupRef reports whether a command-line argument names a group.
func IsGroupRef(ref string) bool {
	return strings.HasPrefix(ref, GroupSigil)
}

// Resolve expands one reference into servers. A plain name resolves to that
// single server; an "@group" reference expands to the group's members. An
// existing but empty group is an error (NotFoundError with EmptyGroup set)
// so bulk operations never silently do nothing.
func Resolve(store Store, ref string) ([]*Server, error) {
	if !IsGroupRef(ref) {
		s, err := store.GetServer(ref)
		if err != nil {
			return nil, err
		}
		return []*Server{s}, nil
	}

	group := strings.TrimPrefix(ref, GroupSigil)
	servers, err := store.ServersInGroup(group)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, &NotFoundError{Kind: "group", Name: group, Scope: store.Scope(), EmptyGroup: true}
	}
	return servers, nil
}

// ResolveAll expands a mixed list of server and group references, failing
// on the first unresolvable one. The result is deduplicated by server name
// and sorted, so overlapping groups yield each server once.
func ResolveAll(store Store, refs []string) ([]*Server, error) {
	seen := map[string]bool{}
	var servers []*Server
	for _, ref := range refs {
		resolved, err := Resolve(store, ref)
		if err != nil {
			return nil, err
		}
		for _, s := range resolved {
			if !seen[s.Name] {
				seen[s.Name] = true
				servers = append(servers, s)
			}
		}
	}
	sortServers(servers)
	return servers, nil
}
