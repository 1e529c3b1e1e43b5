package unicrew

import "time"

// Page is the backend's page-number envelope for list endpoints.
// Lists are served 15 items per page.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// PageSize is the fixed number of items per list page.
const PageSize = 15

// User is the authenticated user's own profile as served by profile/.
type User struct {
	Username              string   `json:"username"`
	Email                 string   `json:"email"`
	FirstName             string   `json:"first_name"`
	LastName              string   `json:"last_name"`
	Faculty               string   `json:"faculty"`
	FacultyID             *int64   `json:"faculty_id"`
	Course                *int     `json:"course"`
	EducationLevel        string   `json:"education_level"`
	EducationLevelDisplay string   `json:"education_level_display"`
	Position              string   `json:"position"`
	AboutMyself           string   `json:"about_myself"`
	Avatar                *string  `json:"avatar"`
	Skills                []string `json:"skills"`
	PersonalQualities     []string `json:"personal_qualities"`
	SkillsList            []string `json:"skills_list"`
	PersonalQualitiesList []string `json:"personal_qualities_list"`
}

// UserSummary is the reduced user shape served by the users/ listing.
type UserSummary struct {
	ID                    int64    `json:"id"`
	Username              string   `json:"username"`
	FirstName             string   `json:"first_name"`
	LastName              string   `json:"last_name"`
	Faculty               *int64   `json:"faculty"`
	Course                *int     `json:"course"`
	EducationLevel        string   `json:"education_level"`
	EducationLevelDisplay string   `json:"education_level_display"`
	Position              string   `json:"position"`
	AboutMyself           string   `json:"about_myself"`
	Avatar                *string  `json:"avatar"`
	SkillsList            []string `json:"skills_list"`
	PersonalQualitiesList []string `json:"personal_qualities_list"`
}

// Team is a project team.
type Team struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Creator           string       `json:"creator"`
	Category          string       `json:"category"`
	Status            string       `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	RequiredSkills    []string     `json:"required_skills"`
	RequiredQualities []string     `json:"required_qualities"`
	Members           []TeamMember `json:"members"`
	WhatsappLink      string       `json:"whatsapp_link"`
	TelegramLink      string       `json:"telegram_link"`
	InviteToken       string       `json:"invite_token"`
}

// Team and membership statuses used by the backend.
const (
	TeamStatusOpen   = "OPEN"
	TeamStatusClosed = "CLOSED"

	MemberStatusPending  = "PENDING"
	MemberStatusApproved = "APPROVED"
	MemberStatusRejected = "REJECTED"
	MemberStatusInvited  = "INVITED"
)

// TeamMember is one membership record: an approved member, a pending join
// request or an outstanding invitation, distinguished by Status.
type TeamMember struct {
	ID        int64        `json:"id"`
	User      *UserSummary `json:"user"`
	UserID    int64        `json:"user_id,omitempty"`
	Status    string       `json:"status"`
	Message   string       `json:"message"`
	TeamTitle string       `json:"team_title"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// JoinRequest is a membership record as served by the requests/my_requests
// endpoints.
type JoinRequest struct {
	ID        int64        `json:"id"`
	User      *UserSummary `json:"user"`
	Status    string       `json:"status"`
	Team      int64        `json:"team"`
	TeamTitle string       `json:"team_title"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

// Task statuses and priorities.
const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"

	TaskPriorityLow    = "LOW"
	TaskPriorityMedium = "MEDIUM"
	TaskPriorityHigh   = "HIGH"
)

// Task is one tracked task inside a team.
type Task struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Team            int64      `json:"team"`
	TeamTitle       string     `json:"team_title"`
	Creator         string     `json:"creator"`
	AssignedTo      string     `json:"assigned_to"`
	Status          string     `json:"status"`
	StatusDisplay   string     `json:"status_display"`
	Priority        string     `json:"priority"`
	PriorityDisplay string     `json:"priority_display"`
	DueDate         *time.Time `json:"due_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Notification is one user notification.
type Notification struct {
	ID                      int64        `json:"id"`
	NotificationType        string       `json:"notification_type"`
	NotificationTypeDisplay string       `json:"notification_type_display"`
	Team                    *int64       `json:"team"`
	TeamTitle               string       `json:"team_title"`
	TeamMember              *JoinRequest `json:"team_member"`
	Message                 string       `json:"message"`
	IsRead                  bool         `json:"is_read"`
	CreatedAt               time.Time    `json:"created_at"`
}

// NamedItem is the {id, name} shape shared by skills, personal qualities and
// project categories.
type NamedItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Faculty is a faculty within a school.
type Faculty struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SchoolName string `json:"school_name"`
}

// School groups faculties.
type School struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Faculties []Faculty `json:"faculties"`
}
