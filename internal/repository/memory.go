package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// In-memory implementations back unit tests and DSN-less development runs.
// They honor the same contracts as the Postgres implementations, including
// ErrNotFound and defensive copying of returned records.

// MemoryIssueRepository is a map-backed IssueRepository.
type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[string]*domain.Issue
}

// NewMemoryIssueRepository constructs an empty store.
func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{issues: make(map[string]*domain.Issue)}
}

func (r *MemoryIssueRepository) Put(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *MemoryIssueRepository) Get(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *MemoryIssueRepository) List(_ context.Context, filter IssueFilter) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Issue
	for _, issue := range r.issues {
		if matchesFilter(issue, filter) {
			result = append(result, *issue.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchesFilter(issue *domain.Issue, filter IssueFilter) bool {
	if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
		return false
	}
	if filter.Department != nil && (issue.Department == nil || *issue.Department != *filter.Department) {
		return false
	}
	if filter.AssignedEmployeeID != nil && (issue.AssignedEmployeeID == nil || *issue.AssignedEmployeeID != *filter.AssignedEmployeeID) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, issue.Priority) {
		return false
	}
	if len(filter.Categories) > 0 && !containsCategory(filter.Categories, issue.Category) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(issue.Title), term) &&
			!strings.Contains(strings.ToLower(issue.Description), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.IssueStatus, v domain.IssueStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.IssuePriority, v domain.IssuePriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsCategory(list []domain.Category, v domain.Category) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// MemoryEmployeeDirectory is a map-backed EmployeeDirectory.
type MemoryEmployeeDirectory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
}

// NewMemoryEmployeeDirectory constructs an empty directory.
func NewMemoryEmployeeDirectory() *MemoryEmployeeDirectory {
	return &MemoryEmployeeDirectory{employees: make(map[string]domain.Employee)}
}

func (r *MemoryEmployeeDirectory) Create(_ context.Context, employee *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	r.employees[employee.ID] = *employee
	return nil
}

func (r *MemoryEmployeeDirectory) Update(_ context.Context, employee *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[employee.ID]; !ok {
		return ErrNotFound
	}
	r.employees[employee.ID] = *employee
	return nil
}

func (r *MemoryEmployeeDirectory) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	employee, ok := r.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &employee, nil
}

func (r *MemoryEmployeeDirectory) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, employee := range r.employees {
		if employee.Email == email {
			found := employee
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryEmployeeDirectory) ListByDepartment(_ context.Context, department domain.Category) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Employee
	for _, employee := range r.employees {
		if employee.Department == department {
			result = append(result, employee)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// MemoryUserRepository is a map-backed UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository constructs an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryPasswordResetRepository is a map-backed PasswordResetRepository.
type MemoryPasswordResetRepository struct {
	mu     sync.RWMutex
	tokens map[string]PasswordResetToken
}

// NewMemoryPasswordResetRepository constructs an empty store.
func NewMemoryPasswordResetRepository() *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{tokens: make(map[string]PasswordResetToken)}
}

func (r *MemoryPasswordResetRepository) Create(_ context.Context, token *PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *MemoryPasswordResetRepository) GetByToken(_ context.Context, token string) (*PasswordResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &found, nil
}

func (r *MemoryPasswordResetRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.ID == id {
			now := time.Now().UTC()
			token.UsedAt = &now
			r.tokens[key] = token
			return nil
		}
	}
	return ErrNotFound
}
