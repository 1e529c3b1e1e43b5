package unicrew

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// recordedRequest captures what one handler saw, for wire-shape assertions.
type recordedRequest struct {
	method string
	query  string
	body   map[string]any
}

func newRecordingSession(t *testing.T, routes map[string]any) (*Session, map[string]*recordedRequest) {
	t.Helper()

	records := make(map[string]*recordedRequest)
	mux := newTestMux()
	for pattern, response := range routes {
		pattern, response := pattern, response
		rec := &recordedRequest{}
		records[pattern] = rec
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			rec.method = r.Method
			rec.query = r.URL.RawQuery
			rec.body = nil
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
			writeJSON(w, http.StatusOK, response)
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	session := NewSession(server.URL, &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}})
	t.Cleanup(session.Close)
	session.Initialize(context.Background())
	return session, records
}

func TestTeamsListFilterQuery(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/": Page[Team]{Count: 1, Results: []Team{{ID: 1, Title: "crew"}}},
	})

	page, err := session.Teams().List(context.Background(), TeamFilter{
		Title:          "рынок",
		Status:         TeamStatusOpen,
		RequiredSkills: []string{"go", "sql"},
		Page:           2,
	})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if page.Count != 1 || len(page.Results) != 1 {
		t.Errorf("List() = %+v", page)
	}

	rec := records["/teams/"]
	if rec.method != http.MethodGet {
		t.Errorf("method = %s", rec.method)
	}
	for _, want := range []string{"page=2", "status=OPEN", "required_skills=go%2Csql"} {
		if !strings.Contains(rec.query, want) {
			t.Errorf("query %q missing %q", rec.query, want)
		}
	}
}

func TestApproveSendsMemberID(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/7/approve/": map[string]string{"detail": "approved"},
	})

	detail, err := session.Teams().Approve(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	if detail != "approved" {
		t.Errorf("Approve() detail = %q", detail)
	}

	rec := records["/teams/7/approve/"]
	if rec.method != http.MethodPost {
		t.Errorf("method = %s, want POST", rec.method)
	}
	if got, ok := rec.body["member_id"].(float64); !ok || int64(got) != 42 {
		t.Errorf("body = %v, want member_id 42", rec.body)
	}
}

func TestInviteSendsUserIDAndMessage(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/7/invite/": map[string]string{"detail": "invited"},
	})

	if _, err := session.Teams().Invite(context.Background(), 7, 9, "join us"); err != nil {
		t.Fatalf("Invite() error: %v", err)
	}

	rec := records["/teams/7/invite/"]
	if got, ok := rec.body["user_id"].(float64); !ok || int64(got) != 9 {
		t.Errorf("body = %v, want user_id 9", rec.body)
	}
	if rec.body["message"] != "join us" {
		t.Errorf("body = %v, want the invite message", rec.body)
	}
}

func TestJoinByInviteToken(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/invite/": map[string]any{"team_id": 31, "detail": "joined"},
	})

	teamID, detail, err := session.Teams().JoinByInviteToken(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("JoinByInviteToken() error: %v", err)
	}
	if teamID != 31 || detail != "joined" {
		t.Errorf("JoinByInviteToken() = %d, %q", teamID, detail)
	}
	if records["/teams/invite/"].body["token"] != "tok-abc" {
		t.Errorf("body = %v, want the token", records["/teams/invite/"].body)
	}
}

func TestSetMemberStatus(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/7/members/42/": TeamMember{ID: 42, Status: MemberStatusApproved},
	})

	member, err := session.Teams().SetMemberStatus(context.Background(), 7, 42, MemberStatusApproved)
	if err != nil {
		t.Fatalf("SetMemberStatus() error: %v", err)
	}
	if member.Status != MemberStatusApproved {
		t.Errorf("member = %+v", member)
	}
	rec := records["/teams/7/members/42/"]
	if rec.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", rec.method)
	}
	if rec.body["status"] != MemberStatusApproved {
		t.Errorf("body = %v", rec.body)
	}
}

func TestTeamUpdateSendsOnlySetFields(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/teams/7/update_team/": Team{ID: 7, Title: "renamed"},
	})

	title := "renamed"
	status := TeamStatusClosed
	if _, err := session.Teams().Update(context.Background(), 7, TeamUpdate{Title: &title, Status: &status}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	rec := records["/teams/7/update_team/"]
	if rec.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", rec.method)
	}
	if rec.body["title"] != "renamed" || rec.body["status"] != TeamStatusClosed {
		t.Errorf("body = %v, want title and status", rec.body)
	}
	if _, present := rec.body["description"]; present {
		t.Errorf("body = %v, unset field was sent", rec.body)
	}
}

func TestAcceptInvitationSendsMemberID(t *testing.T) {
	session, records := newRecordingSession(t, map[string]any{
		"/users/accept_invitation/": map[string]string{"detail": "accepted"},
	})

	if _, err := session.Users().AcceptInvitation(context.Background(), 42); err != nil {
		t.Fatalf("AcceptInvitation() error: %v", err)
	}
	rec := records["/users/accept_invitation/"]
	if got, ok := rec.body["member_id"].(float64); !ok || int64(got) != 42 {
		t.Errorf("body = %v, want member_id 42", rec.body)
	}
}

func TestInviteLinkEscapesToken(t *testing.T) {
	t.Parallel()

	var s TeamsService
	got := s.InviteLink("https://unicrew.example.com/", "a b+c")
	want := "https://unicrew.example.com/invite?token=a+b%2Bc"
	if got != want {
		t.Errorf("InviteLink() = %q, want %q", got, want)
	}
}
