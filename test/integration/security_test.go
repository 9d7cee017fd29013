//go:build integration
// +build integration

package integration

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/security"
	"github.com/healthyplate/server/test/testutils"
)

func (s *RecipeAPITestSuite) TestSecurity_ForgedTokenIsRejected() {
	forged, err := security.NewTokenVerifier("some-other-secret", "").Sign("user-1", time.Minute)
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/v1/saved-recipes", nil, map[string]string{"Authorization": "Bearer " + forged})
	s.ha.Failure(w, http.StatusUnauthorized, "UNAUTHORIZED")
}

func (s *RecipeAPITestSuite) TestSecurity_ExpiredTokenIsRejected() {
	expired, err := s.verifier.Sign("user-1", -time.Minute)
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/v1/saved-recipes", nil, map[string]string{"Authorization": "Bearer " + expired})
	s.ha.Failure(w, http.StatusUnauthorized, "UNAUTHORIZED")
}

func (s *RecipeAPITestSuite) TestSecurity_MarkupInProfileIsRejected() {
	headers := map[string]string{middleware.ClientIDHeader: uuid.NewString()}
	input := testutils.NewProfileFactory(9).Input()
	input.OtherDietaryInfo = `<script>alert("x")</script>`

	s.ha.Failure(s.do(http.MethodPut, "/api/v1/profile", input, headers), http.StatusBadRequest, "VALIDATION_FAILED")
	s.ha.Failure(s.do(http.MethodGet, "/api/v1/profile", nil, headers), http.StatusNotFound, "PROFILE_NOT_FOUND")
}

func (s *RecipeAPITestSuite) TestSecurity_ClientsAreIsolated() {
	alice := map[string]string{middleware.ClientIDHeader: uuid.NewString()}
	bob := map[string]string{middleware.ClientIDHeader: uuid.NewString()}

	s.ha.Success(s.do(http.MethodPut, "/api/v1/profile", testutils.NewProfileFactory(1).Input(), alice), http.StatusOK, nil)
	s.ha.Failure(s.do(http.MethodGet, "/api/v1/profile", nil, bob), http.StatusNotFound, "PROFILE_NOT_FOUND")
}

func (s *RecipeAPITestSuite) TestSecurity_HostileQueryIsHarmless() {
	q := url.Values{"query": {"'; DROP TABLE health_profiles; --"}}
	w := s.do(http.MethodGet, "/api/v1/recipes?"+q.Encode(), nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.ha.SecurityHeaders(w)

	s.True(s.db.Migrator().HasTable("health_profiles"))
}

func (s *RecipeAPITestSuite) TestSecurity_OversizedRequestIDIsReplaced() {
	w := s.do(http.MethodGet, "/api/v1/recipes", nil, map[string]string{"X-Request-ID": strings.Repeat("a", 500)})
	id := w.Header().Get("X-Request-ID")
	s.NotEmpty(id)
	s.Less(len(id), 500)
}
