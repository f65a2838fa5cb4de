package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtime_WorkspaceSubscriberSeesIssueCreated(t *testing.T) {
	userId := createUser(t, "ws-creator")
	watcherId := createUser(t, "ws-watcher")
	teamId := createTeam(t, "Realtime Team", "RT")
	addMember(t, teamId, userId)

	conn := wsDial(t, watcherId)

	reply := subscribe(t, conn, "workspace")
	require.Equal(t, "subscription.confirmed", reply["type"])
	require.Equal(t, "workspace", reply["scope"])

	issue := createIssue(t, userId, teamId, "Visible to workspace")

	frame := wsReadType(t, conn, "issue.created")
	pushed := frame["issue"].(map[string]interface{})
	assert.Equal(t, issue["id"], pushed["id"])
	assert.Equal(t, "RT-1", pushed["identifier"])
	assert.Equal(t, userId, frame["actor_id"])
	assert.NotEmpty(t, frame["timestamp"])
}

func TestRealtime_TeamScopeRequiresMembership(t *testing.T) {
	outsiderId := createUser(t, "outsider")
	teamId := createTeam(t, "Private Team", "PRV")

	conn := wsDial(t, outsiderId)

	reply := subscribe(t, conn, "team_"+teamId)
	assert.Equal(t, "subscription.rejected", reply["type"])
	assert.Equal(t, "rejected", reply["status"])
}

func TestRealtime_IssueSubscriptionJoinsPresence(t *testing.T) {
	userId := createUser(t, "presence-user")
	teamId := createTeam(t, "Presence Team", "PRS")
	addMember(t, teamId, userId)
	issue := createIssue(t, userId, teamId, "Watched issue")

	conn := wsDial(t, userId)

	reply := subscribe(t, conn, "issue_"+issue["id"].(string))
	require.Equal(t, "subscription.confirmed", reply["type"])

	frame := wsReadType(t, conn, "presence.updated")
	users := frame["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, userId, users[0].(map[string]interface{})["id"])
}

func TestRealtime_CommentGoesToIssueChannelOnly(t *testing.T) {
	authorId := createUser(t, "comment-author")
	viewerId := createUser(t, "comment-viewer")
	teamId := createTeam(t, "Comment Team", "CMT")
	addMember(t, teamId, authorId)
	addMember(t, teamId, viewerId)
	issue := createIssue(t, authorId, teamId, "Commented issue")
	issueId := issue["id"].(string)

	viewerConn := wsDial(t, viewerId)
	reply := subscribe(t, viewerConn, "issue_"+issueId)
	require.Equal(t, "subscription.confirmed", reply["type"])

	resp, body := doJSON(t, http.MethodPost, "/api/v1/issues/"+issueId+"/comments", authorId, map[string]string{
		"body": "looks good",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	commentId := body["comment"].(map[string]interface{})["id"].(string)

	frame := wsReadType(t, viewerConn, "comment.created")
	pushed := frame["comment"].(map[string]interface{})
	assert.Equal(t, commentId, pushed["id"])
	assert.Equal(t, "looks good", pushed["body"])
}

func TestRealtime_UnknownScopeRejected(t *testing.T) {
	userId := createUser(t, "scope-user")

	conn := wsDial(t, userId)

	reply := subscribe(t, conn, "galaxy_42")
	assert.Equal(t, "subscription.rejected", reply["type"])
	assert.Equal(t, "unknown scope", reply["reason"])
}

func TestRealtime_UpdateCarriesChangedFields(t *testing.T) {
	userId := createUser(t, "update-user")
	teamId := createTeam(t, "Update Team", "UPD")
	addMember(t, teamId, userId)
	issue := createIssue(t, userId, teamId, "Old title")
	issueId := issue["id"].(string)

	conn := wsDial(t, userId)
	reply := subscribe(t, conn, "issue_"+issueId)
	require.Equal(t, "subscription.confirmed", reply["type"])

	resp, _ := doJSON(t, http.MethodPatch, "/api/v1/issues/"+issueId, userId, map[string]string{
		"title": "New title",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame := wsReadType(t, conn, "issue.updated")
	changed := frame["changed_fields"].([]interface{})
	assert.Equal(t, []interface{}{"title"}, changed)
	assert.Equal(t, "New title", frame["issue"].(map[string]interface{})["title"])
}
