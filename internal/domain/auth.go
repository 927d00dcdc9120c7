package domain

// SubjectType differentiates resident vs staff tokens.
type SubjectType string

const (
	SubjectTypeResident SubjectType = "RESIDENT"
	SubjectTypeStaff    SubjectType = "STAFF"
)

// Actor is the capability token passed to mutating operations. Services check
// the subject type at the operation boundary instead of trusting the caller.
type Actor struct {
	Type SubjectType
	ID   string
	Name string
}

// IsStaff reports whether the actor carries the staff capability.
func (a Actor) IsStaff() bool {
	return a.Type == SubjectTypeStaff
}

// SystemActor is used for mutations originating inside the service itself,
// such as the seeded history entry at creation.
var SystemActor = Actor{Type: SubjectTypeStaff, ID: "system", Name: "system"}
