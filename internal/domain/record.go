package domain

import "maps"

// AnonymousUsername is the identifier used for subjects whose record does
// not name a username. It matches the anonymous identifier of the hosting
// framework, which is the empty string.
const AnonymousUsername = ""

// Record is the authorization payload resolved for a single subject. It is
// produced once per authentication attempt and must not be modified
// afterwards; views derive everything they expose from it.
type Record struct {
	// Username identifies the subject. An empty value means the
	// anonymous user.
	Username string `json:"username"`

	// Connections maps connection identifiers to their specs. The key
	// doubles as the connection's human-readable name. A nil map means
	// no connections were defined, which is distinct from an empty map.
	Connections map[string]ConnectionSpec `json:"connections"`
}

// ConnectionSpec describes one remote-access target.
type ConnectionSpec struct {
	// Protocol names the remote-access protocol, such as "vnc" or
	// "rdp". It is passed through unvalidated.
	Protocol string `json:"protocol"`

	// Parameters holds protocol-specific settings. A nil map is legal
	// and treated as empty.
	Parameters map[string]string `json:"parameters"`
}

// Clone returns a deep copy of the record, so each session owns its data
// even when records originate from a shared source such as a cached
// default-record file.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := &Record{Username: r.Username}
	if r.Connections != nil {
		clone.Connections = make(map[string]ConnectionSpec, len(r.Connections))
		for id, spec := range r.Connections {
			spec.Parameters = maps.Clone(spec.Parameters)
			clone.Connections[id] = spec
		}
	}
	return clone
}
