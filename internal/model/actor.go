package model

// ActorKind is the outcome of resolving who is making a request.
type ActorKind string

const (
	ActorUnauthenticated ActorKind = "unauthenticated"
	ActorAdmin           ActorKind = "admin"
	ActorTeacher         ActorKind = "teacher"
	ActorStudent         ActorKind = "student"
	// ActorUnrecognized is an authenticated account with no usable role record.
	ActorUnrecognized ActorKind = "unrecognized"
)

// Actor is the resolved identity of the caller.
type Actor struct {
	Kind  ActorKind `json:"kind"`
	UID   string    `json:"uid,omitempty"`
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name,omitempty"`
}

// Authenticated reports whether the actor holds a verified session.
func (a Actor) Authenticated() bool {
	return a.Kind != ActorUnauthenticated && a.Kind != ""
}

// KindForRole maps a stored role to an actor kind.
func KindForRole(r Role) ActorKind {
	switch r {
	case RoleAdmin:
		return ActorAdmin
	case RoleTeacher:
		return ActorTeacher
	case RoleStudent:
		return ActorStudent
	}
	return ActorUnrecognized
}
