//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const votingServiceURL = "http://localhost:8083"

// End-to-end flow against a running voting service. Expects a match with
// id "api-match-1" and max_players=2 to have been synced beforehand.
func TestAPI_VotingFlow(t *testing.T) {
	waitForService(t)

	matchID := "api-match-1"

	t.Run("Step1_MatchStatusEmpty", func(t *testing.T) {
		resp := get(t, votingServiceURL+"/api/v1/matches/"+matchID+"/status")
		assert.Equal(t, 200, resp.StatusCode)

		var status map[string]interface{}
		decodeJSON(t, resp, &status)
		assert.Equal(t, float64(0), status["going_count"])
		assert.Equal(t, float64(2), status["spots_available"])
	})

	t.Run("Step2_TwoUsersVoteGoing", func(t *testing.T) {
		for _, u := range []string{"user-1", "user-2"} {
			resp := post(t, votingServiceURL+"/api/v1/matches/"+matchID+"/vote/going",
				map[string]string{"user_id": u, "nickname": u})
			assert.Equal(t, 204, resp.StatusCode)
		}
	})

	t.Run("Step3_ThirdUserLandsInReserve", func(t *testing.T) {
		resp := post(t, votingServiceURL+"/api/v1/matches/"+matchID+"/vote/going",
			map[string]string{"user_id": "user-3", "nickname": "user-3"})
		assert.Equal(t, 204, resp.StatusCode)

		slots := getSlots(t, matchID, "reserve")
		require.Len(t, slots, 1)
		assert.Equal(t, "user-3", slots[0]["user_id"])
		assert.Equal(t, float64(1), slots[0]["reserve_position"])
	})

	t.Run("Step4_DropoutPromotesReserve", func(t *testing.T) {
		resp := post(t, votingServiceURL+"/api/v1/matches/"+matchID+"/vote/not-going",
			map[string]string{"user_id": "user-1", "nickname": "user-1"})
		assert.Equal(t, 200, resp.StatusCode)

		var vote map[string]interface{}
		decodeJSON(t, resp, &vote)
		assert.Equal(t, false, vote["lost_reserve_position"])

		slots := getSlots(t, matchID, "go")
		require.Len(t, slots, 2)
	})

	t.Run("Step5_StatusReflectsFinalState", func(t *testing.T) {
		resp := get(t, votingServiceURL+"/api/v1/matches/"+matchID+"/status")
		assert.Equal(t, 200, resp.StatusCode)

		var status map[string]interface{}
		decodeJSON(t, resp, &status)
		assert.Equal(t, float64(2), status["going_count"])
		assert.Equal(t, float64(0), status["reserve_count"])
		assert.Equal(t, float64(1), status["not_going_count"])
	})
}

func waitForService(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		resp, err := http.Get(votingServiceURL + "/health")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			return
		}
		time.Sleep(time.Second)
	}
	t.Fatal("voting service did not become ready")
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func getSlots(t *testing.T, matchID, status string) []map[string]interface{} {
	t.Helper()
	resp := get(t, fmt.Sprintf("%s/api/v1/matches/%s/slots?status=%s", votingServiceURL, matchID, status))
	require.Equal(t, 200, resp.StatusCode)
	var slots []map[string]interface{}
	decodeJSON(t, resp, &slots)
	return slots
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
