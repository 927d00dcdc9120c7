package domain

import "time"

// Category enumerates the municipal service areas an issue can belong to.
// The same enumeration doubles as the set of departments issues are routed to.
type Category string

const (
	CategoryRoads       Category = "roads"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryWaste       Category = "waste"
	CategorySafety      Category = "safety"
	CategoryParks       Category = "parks"
	CategoryOther       Category = "other"
)

// Categories returns the enumeration in its canonical order. The order is
// load-bearing: the fallback classifier breaks ties by it.
func Categories() []Category {
	return []Category{
		CategoryRoads,
		CategoryWater,
		CategoryElectricity,
		CategoryWaste,
		CategorySafety,
		CategoryParks,
		CategoryOther,
	}
}

// Valid reports whether the category is a member of the enumeration.
func (c Category) Valid() bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	StatusPending    IssueStatus = "pending"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

// Valid reports whether the status is a member of the enumeration.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IssuePriority enumerates triage urgency.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

// Valid reports whether the priority is a member of the enumeration.
func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// StatusChange is a single audit-trail entry. The history is append-only;
// entries are never rewritten once recorded.
type StatusChange struct {
	Status    IssueStatus `json:"status"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
	Note      string      `json:"note,omitempty"`
}

// Issue is the aggregate for a reported municipal problem. The JSON layout is
// the persisted record shape and must round-trip without field loss.
type Issue struct {
	ID           string   `json:"id"`
	ReporterID   string   `json:"reporterId"`
	ReporterName string   `json:"reporterName"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	PhotoRef     *string  `json:"photoRef,omitempty"`

	Status               IssueStatus   `json:"status"`
	Priority             IssuePriority `json:"priority"`
	Department           *Category     `json:"department,omitempty"`
	AssignedEmployeeID   *string       `json:"assignedEmployeeId,omitempty"`
	AssignedEmployeeName *string       `json:"assignedEmployeeName,omitempty"`
	AssignedBy           *string       `json:"assignedBy,omitempty"`
	StaffNotes           *string       `json:"staffNotes,omitempty"`

	ResidentConfirmed bool    `json:"residentConfirmed"`
	ResidentRejected  bool    `json:"residentRejected"`
	ResidentFeedback  *string `json:"residentFeedback,omitempty"`

	// Classification metadata, present only when a classifier suggested the
	// category (gateway or keyword fallback).
	Confidence *float64 `json:"confidence,omitempty"`
	IssueType  *string  `json:"issueType,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	RiskLevel  *string  `json:"riskLevel,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	StatusHistory []StatusChange `json:"statusHistory"`
}

// Clone returns a deep copy so stored records cannot be mutated through
// returned pointers.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Latitude = clonePtr(i.Latitude)
	clone.Longitude = clonePtr(i.Longitude)
	clone.PhotoRef = clonePtr(i.PhotoRef)
	clone.Department = clonePtr(i.Department)
	clone.AssignedEmployeeID = clonePtr(i.AssignedEmployeeID)
	clone.AssignedEmployeeName = clonePtr(i.AssignedEmployeeName)
	clone.AssignedBy = clonePtr(i.AssignedBy)
	clone.StaffNotes = clonePtr(i.StaffNotes)
	clone.ResidentFeedback = clonePtr(i.ResidentFeedback)
	clone.Confidence = clonePtr(i.Confidence)
	clone.IssueType = clonePtr(i.IssueType)
	clone.RiskLevel = clonePtr(i.RiskLevel)
	clone.ResolvedAt = clonePtr(i.ResolvedAt)
	if i.Keywords != nil {
		clone.Keywords = append([]string(nil), i.Keywords...)
	}
	if i.StatusHistory != nil {
		clone.StatusHistory = append([]StatusChange(nil), i.StatusHistory...)
	}
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
