// Package view derives the read-only object graph exposed to the host
// framework from a resolved record: the subject's own user, the
// connections defined for them, and the single synthetic root group.
package view

import (
	"fmt"
	"maps"
	"slices"

	"authcallback/internal/domain"
)

// RootGroupIdentifier is the reserved identifier of the synthetic group
// containing every visible connection. It shares the string namespace
// with connection identifiers but is only ever resolved through the
// group directory, so a connection named "ROOT" does not shadow it.
const RootGroupIdentifier = "ROOT"

// User is the host-facing representation of a subject, carrying the
// identifier sets the subject is allowed to read.
type User struct {
	Identifier                 string
	UserPermissions            []string
	ConnectionPermissions      []string
	ConnectionGroupPermissions []string
}

// Connection is the host-facing representation of one remote-access
// target. Identifier and Name are always equal; every connection is
// parented to the root group.
type Connection struct {
	Identifier       string
	Name             string
	ParentIdentifier string
	Protocol         string
	Parameters       map[string]string
}

// Group is the host-facing representation of a connection group. The
// model is flat: the only group is the root group, and it has no child
// groups.
type Group struct {
	Identifier            string
	Name                  string
	ConnectionIdentifiers []string
	GroupIdentifiers      []string
}

// View exposes a record as a permission-scoped directory structure. All
// accessors are pure functions of the record: calling one twice yields
// structurally equal (not identical-instance) results, and none of them
// writes to the record.
type View struct {
	record *domain.Record
}

// New creates a view over the given record. The record must be the
// product of a successful resolution; building a view without one is an
// authentication failure, not a view concern.
func New(record *domain.Record) (*View, error) {
	if record == nil {
		return nil, fmt.Errorf("building authorization view: %w", domain.ErrAuthenticationFailed)
	}
	return &View{record: record}, nil
}

// Username returns the identifier of the subject owning this view.
func (v *View) Username() string {
	return v.record.Username
}

// Self returns the one user visible to the subject: themselves. The
// permission sets grant read access to exactly the identifiers visible
// through the directories.
func (v *View) Self() User {
	return User{
		Identifier:                 v.record.Username,
		UserPermissions:            v.UserIdentifiers(),
		ConnectionPermissions:      v.ConnectionIdentifiers(),
		ConnectionGroupPermissions: v.ConnectionGroupIdentifiers(),
	}
}

// UserIdentifiers returns the identifiers of all users visible to the
// subject. Subjects can only see themselves.
func (v *View) UserIdentifiers() []string {
	return []string{v.record.Username}
}

// ConnectionIdentifiers returns the identifiers of all connections
// visible to the subject, sorted. A record without connections yields an
// empty set.
func (v *View) ConnectionIdentifiers() []string {
	ids := make([]string, 0, len(v.record.Connections))
	for id := range v.record.Connections {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ConnectionGroupIdentifiers returns the identifiers of all connection
// groups visible to the subject. Only the root group exists.
func (v *View) ConnectionGroupIdentifiers() []string {
	return []string{RootGroupIdentifier}
}

// UserDirectory returns the directory of visible users, keyed by
// identifier. It always contains only the subject.
func (v *View) UserDirectory() map[string]User {
	self := v.Self()
	return map[string]User{self.Identifier: self}
}

// ConnectionDirectory returns one connection per spec in the record,
// keyed by identifier, each parented to the root group. Protocol and
// parameters are taken verbatim from the spec; parameters are copied so
// callers cannot reach the record's own map.
func (v *View) ConnectionDirectory() map[string]Connection {
	directory := make(map[string]Connection, len(v.record.Connections))
	for id, spec := range v.record.Connections {
		params := maps.Clone(spec.Parameters)
		if params == nil {
			params = map[string]string{}
		}
		directory[id] = Connection{
			Identifier:       id,
			Name:             id,
			ParentIdentifier: RootGroupIdentifier,
			Protocol:         spec.Protocol,
			Parameters:       params,
		}
	}
	return directory
}

// ConnectionGroupDirectory returns the directory of visible connection
// groups, which always holds exactly the root group.
func (v *View) ConnectionGroupDirectory() map[string]Group {
	return map[string]Group{RootGroupIdentifier: v.RootGroup()}
}

// RootGroup returns the synthetic root group containing every visible
// connection and no child groups.
func (v *View) RootGroup() Group {
	return Group{
		Identifier:            RootGroupIdentifier,
		Name:                  RootGroupIdentifier,
		ConnectionIdentifiers: v.ConnectionIdentifiers(),
		GroupIdentifiers:      []string{},
	}
}
