package e2e

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Счетчик команды выдает номера строго последовательно даже под
// конкурентной нагрузкой: никаких дырок и дублей
func TestAllocator_ConcurrentCreatesAreContiguous(t *testing.T) {
	userId := createUser(t, "alloc-user")
	teamId := createTeam(t, "Allocator Team", "ALC")
	addMember(t, teamId, userId)

	// Стартуем не с нуля: счетчик уже выдавал номера
	_, err := testPool.Exec(context.Background(),
		"UPDATE teams SET issue_counter = 5 WHERE id = $1", teamId)
	require.NoError(t, err)

	const concurrency = 10

	var wg sync.WaitGroup
	identifiers := make([]string, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, body := doJSON(t, http.MethodPost, "/api/v1/issues", userId, map[string]string{
				"team_id": teamId,
				"title":   fmt.Sprintf("concurrent issue %d", i),
			})
			if resp.StatusCode == http.StatusCreated {
				identifiers[i] = body["issue"].(map[string]interface{})["identifier"].(string)
			}
		}(i)
	}
	wg.Wait()

	numbers := make([]int, 0, concurrency)
	for _, identifier := range identifiers {
		require.NotEmpty(t, identifier, "all concurrent creates must succeed")
		require.True(t, strings.HasPrefix(identifier, "ALC-"))
		n, err := strconv.Atoi(strings.TrimPrefix(identifier, "ALC-"))
		require.NoError(t, err)
		numbers = append(numbers, n)
	}

	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, 6+i, n, "numbers must be contiguous starting after the counter")
	}

	var counter int
	err = testPool.QueryRow(context.Background(),
		"SELECT issue_counter FROM teams WHERE id = $1", teamId).Scan(&counter)
	require.NoError(t, err)
	assert.Equal(t, 5+concurrency, counter)
}

func TestAllocator_UnknownTeamIs404(t *testing.T) {
	userId := createUser(t, "lost-user")

	resp, body := doJSON(t, http.MethodPost, "/api/v1/issues", userId, map[string]string{
		"team_id": "00000000-0000-0000-0000-000000000000",
		"title":   "no home",
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]interface{})["code"])
}

func TestTeam_DuplicateKeyRejected(t *testing.T) {
	createTeam(t, "First", "DUP")

	resp, body := doJSON(t, http.MethodPost, "/api/v1/teams", "", map[string]string{
		"name": "Second",
		"key":  "DUP",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "TEAM_EXISTS", body["error"].(map[string]interface{})["code"])
}
