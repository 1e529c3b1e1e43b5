package unicrew

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"
)

// UsersService wraps the user listing, profile and membership-request
// endpoints.
type UsersService struct {
	client *Client
}

// UserFilter narrows the users/ listing. Zero values are omitted.
type UserFilter struct {
	Username          string
	FacultyID         int64
	SchoolID          int64
	Course            int
	EducationLevel    string
	Skills            []string
	PersonalQualities []string
	Page              int
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.Username != "" {
		q.Set("username", f.Username)
	}
	if f.FacultyID > 0 {
		q.Set("faculty", strconv.FormatInt(f.FacultyID, 10))
	}
	if f.SchoolID > 0 {
		q.Set("school", strconv.FormatInt(f.SchoolID, 10))
	}
	if f.Course > 0 {
		q.Set("course", strconv.Itoa(f.Course))
	}
	if f.EducationLevel != "" {
		q.Set("education", f.EducationLevel)
	}
	if len(f.Skills) > 0 {
		q.Set("skills", strings.Join(f.Skills, ","))
	}
	if len(f.PersonalQualities) > 0 {
		q.Set("personal_qualities", strings.Join(f.PersonalQualities, ","))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// List returns one page of users matching the filter.
func (s *UsersService) List(ctx context.Context, filter UserFilter) (Page[UserSummary], error) {
	return getJSON[Page[UserSummary]](ctx, s.client, withQuery("users/", filter.query()), asList())
}

// Get returns one user by id.
func (s *UsersService) Get(ctx context.Context, id int64) (UserSummary, error) {
	return getJSON[UserSummary](ctx, s.client, fmt.Sprintf("users/%d/", id))
}

// Profile returns the authenticated user's own profile.
func (s *UsersService) Profile(ctx context.Context) (User, error) {
	return getJSON[User](ctx, s.client, "profile/")
}

// ProfileUpdate describes a partial profile edit. Nil fields are left
// untouched by the backend.
type ProfileUpdate struct {
	FirstName         *string
	LastName          *string
	FacultyID         *int64
	Course            *int
	EducationLevel    *string
	Position          *string
	AboutMyself       *string
	Skills            *[]string
	PersonalQualities *[]string
}

// UpdateProfile applies a partial edit to the authenticated user's profile.
// The PATCH body carries only the fields actually set, so unrelated profile
// data is never clobbered by a concurrent edit.
func (s *UsersService) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	body, err := update.marshal()
	if err != nil {
		return User{}, err
	}
	data, err := s.client.patchRaw(ctx, "profile/", body)
	if err != nil {
		return User{}, err
	}
	return decodeJSON[User](data, "profile update")
}

func (u ProfileUpdate) marshal() ([]byte, error) {
	body := []byte(`{}`)
	set := func(key string, value any) error {
		var err error
		body, err = sjson.SetBytes(body, key, value)
		return err
	}
	fields := []struct {
		key   string
		value any
		ok    bool
	}{
		{"first_name", deref(u.FirstName), u.FirstName != nil},
		{"last_name", deref(u.LastName), u.LastName != nil},
		{"faculty_id", deref(u.FacultyID), u.FacultyID != nil},
		{"course", deref(u.Course), u.Course != nil},
		{"education_level", deref(u.EducationLevel), u.EducationLevel != nil},
		{"position", deref(u.Position), u.Position != nil},
		{"about_myself", deref(u.AboutMyself), u.AboutMyself != nil},
		{"skills", deref(u.Skills), u.Skills != nil},
		{"personal_qualities", deref(u.PersonalQualities), u.PersonalQualities != nil},
	}
	for _, f := range fields {
		if !f.ok {
			continue
		}
		if err := set(f.key, f.value); err != nil {
			return nil, fmt.Errorf("unicrew users: build profile update: %w", err)
		}
	}
	return body, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// MyRequests returns the authenticated user's pending join requests.
func (s *UsersService) MyRequests(ctx context.Context) ([]JoinRequest, error) {
	return getJSON[[]JoinRequest](ctx, s.client, "users/my_requests/")
}

// MyInvitations returns invitations awaiting the authenticated user's answer.
func (s *UsersService) MyInvitations(ctx context.Context) ([]JoinRequest, error) {
	return getJSON[[]JoinRequest](ctx, s.client, "users/my_invitations/")
}

// AcceptInvitation accepts a team invitation by membership id.
func (s *UsersService) AcceptInvitation(ctx context.Context, memberID int64) (string, error) {
	return s.membershipAction(ctx, "users/accept_invitation/", memberID)
}

// RejectInvitation declines a team invitation by membership id.
func (s *UsersService) RejectInvitation(ctx context.Context, memberID int64) (string, error) {
	return s.membershipAction(ctx, "users/reject_invitation/", memberID)
}

// CancelRequest withdraws a pending join request by membership id.
func (s *UsersService) CancelRequest(ctx context.Context, memberID int64) (string, error) {
	return s.membershipAction(ctx, "users/cancel_request/", memberID)
}

func (s *UsersService) membershipAction(ctx context.Context, path string, memberID int64) (string, error) {
	data, err := s.client.post(ctx, path, map[string]int64{"member_id": memberID})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// decodeJSON unmarshals a response body into T with a descriptive error.
func decodeJSON[T any](data []byte, what string) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unicrew client: decode %s response: %w", what, err)
	}
	return out, nil
}
