package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/scan"
	"github.com/trezcool/workbook/core/submission"
	logsvc "github.com/trezcool/workbook/services/logger"
	"github.com/trezcool/workbook/testutil"
)

var (
	testConf = &core.Config{
		AppName:   "Workbook",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server:    core.ServerConfig{DisableReqLogs: true},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type fixture struct {
	app   *Server
	repos testutil.Repos
	class roster.Class
	other roster.Class
	clock *testutil.Clock

	adminToken   string
	teacherToken string
	otherToken   string
}

func setup(t *testing.T) fixture {
	repos := testutil.MemoryRepos(t)
	class := testutil.SeedDemo(t, repos.Roster)
	other, err := repos.Roster.SaveClass(context.Background(), roster.Class{Year: 2026, ClassCode: "3B", Name: "3年B組"})
	require.NoError(t, err)

	cal, clock := testutil.Calendar(testutil.At(2026, time.March, 10, 9, 0))
	validate, translator := testutil.Validator()

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "API : ", 0), testConf)
	logger.Enable(false)

	booklets := booklet.NewService(repos.Booklets, repos.Roster)
	ledger := submission.NewService(repos.Submissions, booklets, cal)
	pointsSvc := points.NewService(repos.Submissions, cal)

	app := NewServer(ServerDeps{
		Conf:         testConf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Calendar:     cal,
		Roster:       repos.Roster,
		Scans:        scan.NewService(booklets, ledger, pointsSvc, cal),
		Booklets:     booklets,
		Ledger:       ledger,
		Points:       pointsSvc,
		Leaderboards: leaderboard.NewService(repos.Submissions, repos.Roster, cal, 0, 0),
	})

	return fixture{
		app:          app,
		repos:        repos,
		class:        class,
		other:        other,
		clock:        clock,
		adminToken:   getToken(t, NewClaims("admin", true, nil, time.Hour)),
		teacherToken: getToken(t, NewClaims("teacher", false, []string{class.ID}, time.Hour)),
		otherToken:   getToken(t, NewClaims("other-teacher", false, []string{other.ID}, time.Hour)),
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type domainErr struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newDomainErr(err *core.DomainError) domainErr {
	return domainErr{Error: err.Message, Code: err.Code}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (f fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	f.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, claims *Claims) string {
	token, err := GenerateToken(claims, testConf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	f := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	f.app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Workbook API!", rec.Body.String())
}

func TestServer_auth(t *testing.T) {
	f := setup(t)
	path := "/v1/classes/" + f.class.ID + "/leaderboards"

	expired := getToken(t, NewClaims("teacher", false, nil, -time.Minute))
	forged, err := GenerateToken(NewClaims("admin", true, nil, time.Hour), "not-the-secret")
	require.NoError(t, err)
	unlinked := getToken(t, NewClaims("new-teacher", false, nil, time.Hour))

	runHTTPTests(t, f, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     path,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     path,
			token:    expired,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "forged token",
			method:   http.MethodGet,
			path:     path,
			token:    forged,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "class of another teacher",
			method:   http.MethodGet,
			path:     path,
			token:    f.otherToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "unknown class",
			method:   http.MethodGet,
			path:     "/v1/classes/nope/leaderboards",
			token:    f.adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
	})

	for _, token := range []string{f.adminToken, f.teacherToken, unlinked} {
		rec := f.do(http.MethodGet, path, token)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestClaims_CanAccessClass(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   bool
	}{
		{name: "admin", claims: Claims{IsAdmin: true, ClassIDs: []string{"b"}}, want: true},
		{name: "linked", claims: Claims{ClassIDs: []string{"b", "a"}}, want: true},
		{name: "not linked", claims: Claims{ClassIDs: []string{"b"}}, want: false},
		{name: "no classes", claims: Claims{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.CanAccessClass("a"); got != tt.want {
				t.Errorf("CanAccessClass() = %v, want %v", got, tt.want)
			}
		})
	}
}
