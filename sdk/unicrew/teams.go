package unicrew

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TeamsService wraps the team endpoints: browsing, CRUD (creator only, the
// backend enforces authorization), the join-request workflow and invite
// links.
type TeamsService struct {
	client *Client
}

// TeamFilter narrows the teams/ listing. Zero values are omitted.
type TeamFilter struct {
	Title             string
	Category          string
	CategoryID        int64
	Status            string
	RequiredSkills    []string
	RequiredQualities []string
	CreatorName       string
	Page              int
}

func (f TeamFilter) query() url.Values {
	q := url.Values{}
	if f.Title != "" {
		q.Set("title", f.Title)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.CategoryID > 0 {
		q.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if len(f.RequiredSkills) > 0 {
		q.Set("required_skills", strings.Join(f.RequiredSkills, ","))
	}
	if len(f.RequiredQualities) > 0 {
		q.Set("required_qualities", strings.Join(f.RequiredQualities, ","))
	}
	if f.CreatorName != "" {
		q.Set("creator_name", f.CreatorName)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// List returns one page of teams matching the filter.
func (s *TeamsService) List(ctx context.Context, filter TeamFilter) (Page[Team], error) {
	return getJSON[Page[Team]](ctx, s.client, withQuery("teams/", filter.query()), asList())
}

// Get returns one team by id.
func (s *TeamsService) Get(ctx context.Context, id int64) (Team, error) {
	return getJSON[Team](ctx, s.client, fmt.Sprintf("teams/%d/", id))
}

// TeamCreate is the payload for creating a team. Skills, qualities and the
// category are referenced by name.
type TeamCreate struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	RequiredSkills    []string `json:"required_skills"`
	RequiredQualities []string `json:"required_qualities"`
	WhatsappLink      string   `json:"whatsapp_link,omitempty"`
	TelegramLink      string   `json:"telegram_link,omitempty"`
}

// Create creates a team; the backend makes the caller its first approved
// member.
func (s *TeamsService) Create(ctx context.Context, team TeamCreate) (Team, error) {
	return postJSON[Team](ctx, s.client, "teams/", team)
}

// TeamUpdate describes a partial team edit. Nil fields are left untouched.
type TeamUpdate struct {
	Title             *string
	Description       *string
	Category          *string
	Status            *string
	RequiredSkills    *[]string
	RequiredQualities *[]string
	WhatsappLink      *string
	TelegramLink      *string
}

// Update applies a partial edit to a team the caller owns.
func (s *TeamsService) Update(ctx context.Context, id int64, update TeamUpdate) (Team, error) {
	body := []byte(`{}`)
	fields := []struct {
		key   string
		value any
		ok    bool
	}{
		{"title", deref(update.Title), update.Title != nil},
		{"description", deref(update.Description), update.Description != nil},
		{"category", deref(update.Category), update.Category != nil},
		{"status", deref(update.Status), update.Status != nil},
		{"required_skills", deref(update.RequiredSkills), update.RequiredSkills != nil},
		{"required_qualities", deref(update.RequiredQualities), update.RequiredQualities != nil},
		{"whatsapp_link", deref(update.WhatsappLink), update.WhatsappLink != nil},
		{"telegram_link", deref(update.TelegramLink), update.TelegramLink != nil},
	}
	var err error
	for _, f := range fields {
		if !f.ok {
			continue
		}
		if body, err = sjson.SetBytes(body, f.key, f.value); err != nil {
			return Team{}, fmt.Errorf("unicrew teams: build team update: %w", err)
		}
	}
	data, err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("teams/%d/update_team/", id), jsonRaw(body))
	if err != nil {
		return Team{}, err
	}
	return decodeJSON[Team](data, "team update")
}

// Delete removes a team the caller owns.
func (s *TeamsService) Delete(ctx context.Context, id int64) error {
	_, err := s.client.delete(ctx, fmt.Sprintf("teams/%d/", id))
	return err
}

// Join files a join request with an optional message to the team creator.
func (s *TeamsService) Join(ctx context.Context, id int64, message string) (string, error) {
	data, err := s.client.post(ctx, fmt.Sprintf("teams/%d/join/", id), map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// Invite invites a user into a team the caller owns.
func (s *TeamsService) Invite(ctx context.Context, id, userID int64, message string) (string, error) {
	data, err := s.client.post(ctx, fmt.Sprintf("teams/%d/invite/", id), map[string]any{
		"user_id": userID,
		"message": message,
	})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// Requests lists pending join requests for a team the caller owns.
func (s *TeamsService) Requests(ctx context.Context, id int64) ([]JoinRequest, error) {
	return getJSON[[]JoinRequest](ctx, s.client, fmt.Sprintf("teams/%d/requests/", id))
}

// Approve accepts a pending join request.
func (s *TeamsService) Approve(ctx context.Context, id, memberID int64) (string, error) {
	return s.memberAction(ctx, fmt.Sprintf("teams/%d/approve/", id), memberID)
}

// Reject declines a pending join request.
func (s *TeamsService) Reject(ctx context.Context, id, memberID int64) (string, error) {
	return s.memberAction(ctx, fmt.Sprintf("teams/%d/reject/", id), memberID)
}

func (s *TeamsService) memberAction(ctx context.Context, path string, memberID int64) (string, error) {
	data, err := s.client.post(ctx, path, map[string]int64{"member_id": memberID})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// Members lists all membership records of a team.
func (s *TeamsService) Members(ctx context.Context, id int64) ([]TeamMember, error) {
	return getJSON[[]TeamMember](ctx, s.client, fmt.Sprintf("teams/%d/members/", id))
}

// SetMemberStatus updates one membership record's status (approve, reject,
// re-invite) on a team the caller owns.
func (s *TeamsService) SetMemberStatus(ctx context.Context, id, memberID int64, status string) (TeamMember, error) {
	data, err := s.client.put(ctx, fmt.Sprintf("teams/%d/members/%d/", id, memberID), map[string]string{"status": status})
	if err != nil {
		return TeamMember{}, err
	}
	return decodeJSON[TeamMember](data, "member status")
}

// RemoveMember removes a user from a team the caller owns.
func (s *TeamsService) RemoveMember(ctx context.Context, id, userID int64) (string, error) {
	data, err := s.client.delete(ctx, fmt.Sprintf("teams/%d/remove-member/%d/", id, userID))
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// ByInviteToken resolves an invite link token to its team.
func (s *TeamsService) ByInviteToken(ctx context.Context, token string) (Team, error) {
	q := url.Values{"token": {token}}
	return getJSON[Team](ctx, s.client, withQuery("teams/invite/", q))
}

// JoinByInviteToken accepts an invite link and returns the joined team's id.
func (s *TeamsService) JoinByInviteToken(ctx context.Context, token string) (int64, string, error) {
	data, err := s.client.post(ctx, "teams/invite/", map[string]string{"token": token})
	if err != nil {
		return 0, "", err
	}
	return gjson.GetBytes(data, "team_id").Int(), responseDetail(data), nil
}

// InviteLink builds the shareable web URL for a team's invite token.
func (s *TeamsService) InviteLink(webBaseURL, token string) string {
	return strings.TrimRight(webBaseURL, "/") + "/invite?token=" + url.QueryEscape(token)
}
