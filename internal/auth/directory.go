package auth

import (
	"fmt"
	"sort"
	"strings"
)

// DemoIdentity is a well-known demonstration account that may be served
// without a store hit.
type DemoIdentity struct {
	SubjectID int64
	FirstName string
	LastName  string
	Email     string
	Role      Role
	Verified  bool
}

// DemoDirectory is an immutable table of demo identities keyed by subject id.
// Build it once at startup and share it by pointer; it has no mutating methods.
type DemoDirectory struct {
	byID   map[int64]DemoIdentity
	byRole map[Role]DemoIdentity
}

// DefaultDemoIdentities returns the fixture set used when no override is configured.
func DefaultDemoIdentities() []DemoIdentity {
	return []DemoIdentity{
		{SubjectID: 1, FirstName: "Demo", LastName: "Client", Email: "client@demo.gigmarket.test", Role: RoleClient, Verified: true},
		{SubjectID: 2, FirstName: "Demo", LastName: "Admin", Email: "admin@demo.gigmarket.test", Role: RoleAdmin, Verified: true},
		{SubjectID: 4, FirstName: "Demo", LastName: "Worker", Email: "worker@demo.gigmarket.test", Role: RoleWorker, Verified: true},
	}
}

// NewDemoDirectory validates identities and builds a directory.
// Every identity must have a positive id, a unique id and a role in the closed set.
func NewDemoDirectory(identities []DemoIdentity) (*DemoDirectory, error) {
	d := &DemoDirectory{
		byID:   make(map[int64]DemoIdentity, len(identities)),
		byRole: make(map[Role]DemoIdentity, len(Roles())),
	}

	sorted := append([]DemoIdentity(nil), identities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SubjectID < sorted[j].SubjectID })

	for _, ident := range sorted {
		if ident.SubjectID <= 0 {
			return nil, fmt.Errorf("demo identity %q: subject id must be positive", ident.Email)
		}
		if !ident.Role.Valid() {
			return nil, fmt.Errorf("demo identity %d: %w: %q", ident.SubjectID, ErrUnknownRole, ident.Role)
		}
		if _, dup := d.byID[ident.SubjectID]; dup {
			return nil, fmt.Errorf("demo identity %d: duplicate subject id", ident.SubjectID)
		}
		d.byID[ident.SubjectID] = ident
		if _, ok := d.byRole[ident.Role]; !ok {
			d.byRole[ident.Role] = ident
		}
	}
	return d, nil
}

// DefaultDemoDirectory builds the directory from DefaultDemoIdentities.
func DefaultDemoDirectory() *DemoDirectory {
	d, err := NewDemoDirectory(DefaultDemoIdentities())
	if err != nil {
		panic(err) // fixture data is static
	}
	return d
}

// Lookup returns the identity registered for id.
func (d *DemoDirectory) Lookup(id int64) (DemoIdentity, bool) {
	ident, ok := d.byID[id]
	return ident, ok
}

// ForRole returns the lowest-id identity registered with role r.
func (d *DemoDirectory) ForRole(r Role) (DemoIdentity, bool) {
	ident, ok := d.byRole[r]
	return ident, ok
}

// RoleFor maps a numeric subject id to a role: the registered identity's role
// when known, otherwise the fixture fallback (1 is a client, 4 a worker,
// anything else an admin).
func (d *DemoDirectory) RoleFor(id int64) Role {
	if ident, ok := d.byID[id]; ok {
		return ident.Role
	}
	switch id {
	case 1:
		return RoleClient
	case 4:
		return RoleWorker
	default:
		return RoleAdmin
	}
}

// Identity returns the identity for a numeric subject, synthesising a generic
// one for ids that are not registered.
func (d *DemoDirectory) Identity(id int64) DemoIdentity {
	if ident, ok := d.byID[id]; ok {
		return ident
	}
	return genericIdentity(id, d.RoleFor(id))
}

// IdentityForRole returns the registered identity for r or a generic one with
// subject id 0 when the directory has none.
func (d *DemoDirectory) IdentityForRole(r Role) DemoIdentity {
	if ident, ok := d.byRole[r]; ok {
		return ident
	}
	return genericIdentity(0, r)
}

// Len returns the number of registered identities.
func (d *DemoDirectory) Len() int {
	return len(d.byID)
}

func genericIdentity(id int64, r Role) DemoIdentity {
	name := string(r)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return DemoIdentity{
		SubjectID: id,
		FirstName: "Demo",
		LastName:  name,
		Role:      r,
	}
}
