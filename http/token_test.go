package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	stremerhttp "github.com/stremer/stremerd/http"
)

func TestTokenStore_NothingMatchesBeforeIssue(t *testing.T) {
	s := stremerhttp.NewTokenStore()
	assert.False(t, s.Matches(""))
	assert.False(t, s.Matches("anything"))
}

func TestTokenStore_IssueAndMatch(t *testing.T) {
	s := stremerhttp.NewTokenStore()

	token := s.Issue()
	assert.NotEmpty(t, token)
	assert.True(t, s.Matches(token))
	assert.False(t, s.Matches("other"))
}

func TestTokenStore_IssueInvalidatesPrevious(t *testing.T) {
	s := stremerhttp.NewTokenStore()

	first := s.Issue()
	second := s.Issue()

	assert.NotEqual(t, first, second)
	assert.False(t, s.Matches(first))
	assert.True(t, s.Matches(second))
}
