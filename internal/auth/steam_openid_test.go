package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hitoshi/accountlink/internal/model"
)

const testClaimedID = "https://steamcommunity.com/openid/id/76561197960287930"

// callbackQuery はSteamからのコールバックを模したクエリを返す。
func callbackQuery() url.Values {
	return url.Values{
		"openid.ns":             {openIDNamespace},
		"openid.mode":           {"id_res"},
		"openid.op_endpoint":    {"https://steamcommunity.com/openid/login"},
		"openid.claimed_id":     {testClaimedID},
		"openid.identity":       {testClaimedID},
		"openid.return_to":      {"http://localhost:3000/auth/steam/callback"},
		"openid.response_nonce": {"2026-10-19T12:00:00Zabc"},
		"openid.assoc_handle":   {"1234567890"},
		"openid.signed":         {"signed,op_endpoint,claimed_id,identity,return_to,response_nonce,assoc_handle"},
		"openid.sig":            {"c2lnbmF0dXJl"},
		"unrelated":             {"dropped"},
	}
}

type fakeSteam struct {
	server      *httptest.Server
	verifyCalls atomic.Int32
	verifyBody  string
	summaryCode int
	summaryBody string

	mu           sync.Mutex
	lastVerified url.Values
}

func (f *fakeSteam) verified() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVerified
}

func newFakeSteam(t *testing.T) *fakeSteam {
	t.Helper()

	f := &fakeSteam{
		verifyBody:  "ns:http://specs.openid.net/auth/2.0\nis_valid:true\n",
		summaryCode: http.StatusOK,
		summaryBody: `{"response":{"players":[{"steamid":"76561197960287930","personaname":"Rabscuttle"}]}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/openid/login", func(w http.ResponseWriter, r *http.Request) {
		f.verifyCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		f.mu.Lock()
		f.lastVerified = r.PostForm
		f.mu.Unlock()
		w.Write([]byte(f.verifyBody))
	})
	mux.HandleFunc("/summaries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "steam-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		if r.URL.Query().Get("steamids") != "76561197960287930" {
			t.Errorf("steamids = %q", r.URL.Query().Get("steamids"))
		}
		w.WriteHeader(f.summaryCode)
		w.Write([]byte(f.summaryBody))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSteam) provider(apiKey string) *SteamOpenIDProvider {
	return NewSteamOpenIDProvider(SteamOpenIDConfig{
		BaseURL:          "http://localhost:3000/",
		APIKey:           apiKey,
		OpenIDURL:        f.server.URL + "/openid/login",
		PlayerSummaryURL: f.server.URL + "/summaries",
		HTTPClient:       f.server.Client(),
	})
}

func TestSteamOpenIDProvider_AuthURL(t *testing.T) {
	provider := NewSteamOpenIDProvider(SteamOpenIDConfig{BaseURL: "https://link.example.com"})

	u, err := url.Parse(provider.AuthURL())
	if err != nil {
		t.Fatalf("failed to parse auth url: %v", err)
	}
	if got := u.Scheme + "://" + u.Host + u.Path; got != defaultSteamOpenIDURL {
		t.Errorf("endpoint = %q, want %q", got, defaultSteamOpenIDURL)
	}

	q := u.Query()
	want := map[string]string{
		"openid.ns":         openIDNamespace,
		"openid.mode":       "checkid_setup",
		"openid.return_to":  "https://link.example.com/auth/steam/callback",
		"openid.realm":      "https://link.example.com",
		"openid.identity":   openIDIdentifierSel,
		"openid.claimed_id": openIDIdentifierSel,
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestSteamOpenIDProvider_MissingClaimedID_NoNetwork(t *testing.T) {
	fake := newFakeSteam(t)
	query := callbackQuery()
	query.Del("openid.claimed_id")

	_, err := fake.provider("").Authenticate(context.Background(), query)

	appErr, ok := model.AsAppError(err)
	if !ok || appErr.Code != model.ErrCodeMissingClaimedID {
		t.Fatalf("expected MissingClaimedID error, got %v", err)
	}
	if fake.verifyCalls.Load() != 0 {
		t.Errorf("verify calls = %d, want 0", fake.verifyCalls.Load())
	}
}

func TestSteamOpenIDProvider_Valid_ExtractsSteamID(t *testing.T) {
	fake := newFakeSteam(t)

	user, err := fake.provider("").Authenticate(context.Background(), callbackQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.SteamID != "76561197960287930" {
		t.Errorf("SteamID = %q", user.SteamID)
	}
	if user.PersonaName != nil {
		t.Errorf("PersonaName should be nil without API key, got %q", *user.PersonaName)
	}

	// mode以外のopenid.*はそのまま送り返す
	sent := fake.verified()
	if sent.Get("openid.mode") != "check_authentication" {
		t.Errorf("openid.mode = %q", sent.Get("openid.mode"))
	}
	if sent.Get("openid.sig") != "c2lnbmF0dXJl" {
		t.Errorf("openid.sig = %q", sent.Get("openid.sig"))
	}
	if sent.Get("openid.claimed_id") != testClaimedID {
		t.Errorf("openid.claimed_id = %q", sent.Get("openid.claimed_id"))
	}
	if sent.Has("unrelated") {
		t.Error("non-openid parameters should not be forwarded")
	}
}

func TestSteamOpenIDProvider_InvalidAssertion(t *testing.T) {
	fake := newFakeSteam(t)
	fake.verifyBody = "ns:http://specs.openid.net/auth/2.0\nis_valid:false\n"

	_, err := fake.provider("").Authenticate(context.Background(), callbackQuery())

	appErr, ok := model.AsAppError(err)
	if !ok || appErr.Code != model.ErrCodeInvalidAssertion {
		t.Fatalf("expected InvalidAssertion error, got %v", err)
	}
	if appErr.StatusCode() != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", appErr.StatusCode())
	}
}

// 山括弧を含むペルソナ名も取得したまま保存する。
func TestSteamOpenIDProvider_PersonaName_KeptAsReturned(t *testing.T) {
	fake := newFakeSteam(t)
	fake.summaryBody = `{"response":{"players":[{"steamid":"76561197960287930","personaname":"<Clan> Bob"}]}}`

	user, err := fake.provider("steam-key").Authenticate(context.Background(), callbackQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.PersonaName == nil {
		t.Fatal("PersonaName should be set")
	}
	if *user.PersonaName != "<Clan> Bob" {
		t.Errorf("PersonaName = %q, want %q", *user.PersonaName, "<Clan> Bob")
	}
}

func TestSteamOpenIDProvider_PersonaLookupFailure_NotAnError(t *testing.T) {
	fake := newFakeSteam(t)
	fake.summaryCode = http.StatusForbidden
	fake.summaryBody = "<html>Forbidden</html>"

	user, err := fake.provider("steam-key").Authenticate(context.Background(), callbackQuery())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.SteamID != "76561197960287930" {
		t.Errorf("SteamID = %q", user.SteamID)
	}
	if user.PersonaName != nil {
		t.Errorf("PersonaName should be nil, got %q", *user.PersonaName)
	}
}

func TestSteamOpenIDProvider_Unreachable(t *testing.T) {
	fake := newFakeSteam(t)
	provider := fake.provider("")
	fake.server.Close()

	_, err := provider.Authenticate(context.Background(), callbackQuery())

	appErr, ok := model.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", appErr.StatusCode())
	}
	if !strings.HasPrefix(appErr.Message, "Steam auth failed: ") {
		t.Errorf("Message = %q", appErr.Message)
	}
}
